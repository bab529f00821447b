package router

import (
	"opportunityHub/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupRecommendationRoutes(api *echo.Group, handler *rest.RecommendationHandler) {
	reco := api.Group("/recommendations")

	reco.GET("/opportunities/:userId", handler.GetOpportunityRecommendations)
	reco.GET("/content/:userId", handler.GetContentRecommendations)
	reco.GET("/mentors/:userId", handler.GetMentorRecommendations)
	reco.GET("/history/:userId", handler.GetHistory)
	reco.POST("/feedback", handler.Feedback)

	api.GET("/predict/success/:userId/:opportunityId", handler.PredictSuccess)
}

func SetupActivityRoutes(api *echo.Group, handler *rest.ActivityHandler) {
	activity := api.Group("/activity")

	activity.POST("/record", handler.RecordActivity)
	activity.GET("/:userId", handler.GetActivities)

	api.GET("/insights/behavior/:userId", handler.GetBehaviorInsights)
	api.DELETE("/users/:userId/data", handler.DeactivateUserData)
}

func SetupInterestRoutes(api *echo.Group, handler *rest.InterestHandler) {
	interests := api.Group("/interests")

	interests.POST("", handler.UpsertInterests)
	interests.GET("/:userId", handler.GetTopInterests)
}

func SetupHealthRoutes(e *echo.Echo, handler *rest.HealthHandler) {
	e.GET("/health", handler.Health)
}
