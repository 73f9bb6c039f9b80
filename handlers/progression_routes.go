// handlers/progression_routes.go
package handlers

import (
	"strconv"

	"wellness-progress-system/middleware"
	"wellness-progress-system/models"
	"wellness-progress-system/services"
	"wellness-progress-system/utils"

	"github.com/gofiber/fiber/v2"
)

// Default base rewards per activity kind, used when the caller does not send
// an explicit point value.
var defaultActivityPoints = map[string]int64{
	models.ActivityReadingPlan: 50,
	models.ActivityWorkout:     30,
	models.ActivityMeditation:  20,
	models.ActivityRecipe:      25,
	models.ActivitySelfCare:    15,
	models.ActivityCommunity:   10,
}

func SetupProgressionRoutes(
	app *fiber.App,
	progressionService *services.ProgressionService,
	celebrationStream *services.CelebrationStream,
	authClient *services.AuthServiceClient,
) {
	// 🔐 Secured routes — require user context forwarded by the gateway
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		prog, err := progressionService.GetProgress(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load progress",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"id":                    prog.ID,
			"total_points":          prog.TotalPoints,
			"level":                 prog.Level,
			"current_streak":        prog.CurrentStreak,
			"longest_streak":        prog.LongestStreak,
			"last_active_date":      prog.LastActiveDate,
			"plans_completed":       prog.PlansCompleted,
			"workouts_completed":    prog.WorkoutsCompleted,
			"meditations_completed": prog.MeditationsCompleted,
			"recipes_cooked":        prog.RecipesCooked,
			"self_care_completed":   prog.SelfCareCompleted,
			"friend_count":          prog.FriendCount,
			"comment_count":         prog.CommentCount,
			"message_count":         prog.MessageCount,
			"photo_count":           prog.PhotoCount,
			"badges":                prog.Badges,
			"last_level_up_at":      prog.LastLevelUpAt,
		})
	})

	securedGroup.Post("/user/activity", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			Kind     string                   `json:"kind" validate:"required"`
			Points   *int64                   `json:"points,omitempty"`
			Counters []services.CounterUpdate `json:"counters,omitempty"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.Kind == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "kind is required",
			})
		}

		points, ok := defaultActivityPoints[req.Kind]
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unknown activity kind",
				"kind":  req.Kind,
			})
		}
		if req.Points != nil {
			points = *req.Points
		}

		outcome, err := progressionService.RecordActivity(userID, services.ActivityInput{
			Kind:     req.Kind,
			Points:   points,
			Counters: req.Counters,
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to record activity",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"total_points": outcome.TotalPoints,
			"level":        outcome.Level,
			"leveled_up":   outcome.LeveledUp,
			"new_badges":   outcome.NewBadges,
		})
	})

	securedGroup.Get("/user/progress/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		owned, err := progressionService.BadgesFor(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get badges",
				"cause": err.Error(),
			})
		}

		var response []fiber.Map
		for _, b := range owned {
			response = append(response, fiber.Map{
				"code":        b.Code,
				"name":        b.Name,
				"description": b.Description,
				"icon_url":    b.IconURL,
				"rarity":      b.Rarity,
				"position":    b.Position,
			})
		}
		return c.JSON(response)
	})

	securedGroup.Get("/user/progress/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		history, err := progressionService.GetHistory(userID, page, size)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get history",
				"cause": err.Error(),
			})
		}
		return c.JSON(history)
	})

	// Badge catalog is public read (the gateway still authenticated the call)
	app.Get("/badges/catalog", func(c *fiber.Ctx) error {
		return c.JSON(progressionService.Engine().Catalog())
	})

	// SSE celebration stream — EventSource can't set headers, so auth runs
	// off query params against the auth service.
	app.Get("/user/progress/stream",
		middleware.SSEAuthMiddleware(authClient),
		celebrationStream.StreamCelebrationsSSE,
	)

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	adminGroup.Post("/points/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID string `json:"user_id" validate:"required,uuid"`
			Points int64  `json:"points" validate:"required"`
			Reason string `json:"reason" validate:"max=255"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		outcome, err := progressionService.GrantPoints(req.UserID, req.Points, req.Reason)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "point grant failed",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"message":      "points granted successfully",
			"user_id":      req.UserID,
			"total_points": outcome.TotalPoints,
			"level":        outcome.Level,
		})
	})

	adminGroup.Post("/badges/:code/icon", func(c *fiber.Ctx) error {
		code := c.Params("code")
		if models.BadgeByCode(progressionService.Engine().Catalog(), code) == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "unknown badge code",
				"code":  code,
			})
		}

		fileHeader, err := c.FormFile("icon")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "icon file is required",
				"cause": err.Error(),
			})
		}

		key := utils.BadgeIconKey(code, fileHeader.Filename)
		url, err := utils.UploadBadgeIcon(fileHeader, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "icon upload failed",
				"cause": err.Error(),
			})
		}

		// The catalog is immutable at runtime; the returned URL goes into the
		// badge table at the next deploy.
		return c.JSON(fiber.Map{
			"code":     code,
			"icon_url": url,
		})
	})
}
