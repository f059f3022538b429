package middleware

import (
	"lingocall/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Authorizer is the part of the learner service the middleware needs
type Authorizer interface {
	EnsureLearnerExists(userID int64) error
	IsAuthorized(userID int64) (bool, error)
}

var _ Authorizer = (*service.LearnerService)(nil)

// AuthMiddleware lets only authorized learners through
func AuthMiddleware(learners Authorizer, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			userID := c.Sender().ID

			if err := learners.EnsureLearnerExists(userID); err != nil {
				logger.Error("Failed to ensure learner exists in middleware", zap.Error(err))
				return c.Send("Произошла ошибка. Попробуйте позже.")
			}

			authorized, err := learners.IsAuthorized(userID)
			if err != nil {
				logger.Error("Failed to check authorization in middleware", zap.Error(err))
				return c.Send("Произошла ошибка. Попробуйте позже.")
			}

			if !authorized {
				logger.Info("Unauthorized learner blocked", zap.Int64("user_id", userID))
				if c.Callback() != nil {
					return c.Respond(&tele.CallbackResponse{Text: "Сначала введи пароль: /start", ShowAlert: true})
				}
				return c.Send("Сначала введи пароль: /start")
			}

			return next(c)
		}
	}
}
