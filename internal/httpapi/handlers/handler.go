package handlers

import (
	"github.com/sirupsen/logrus"
	"github.com/suPer8Hu/legal-assistant/internal/ai"
	"github.com/suPer8Hu/legal-assistant/internal/config"
	"github.com/suPer8Hu/legal-assistant/internal/models"
	"github.com/suPer8Hu/legal-assistant/internal/store/redisstore"
	"gorm.io/gorm"
)

type Handler struct {
	DB    *gorm.DB
	Cfg   config.Config
	Cache redisstore.Cache
	AI    ai.Provider
	Log   logrus.FieldLogger
	// EvalSet is what run_and_store evaluates.
	EvalSet []EvalQuestion
}

func NewHandler(db *gorm.DB, cfg config.Config, cache redisstore.Cache, provider ai.Provider, log logrus.FieldLogger) (*Handler, error) {
	if err := db.AutoMigrate(&models.User{}, &models.EvalRun{}, &models.Budget{}); err != nil {
		return nil, err
	}
	return &Handler{
		DB:      db,
		Cfg:     cfg,
		Cache:   cache,
		AI:      provider,
		Log:     log,
		EvalSet: DefaultEvalSet(),
	}, nil
}
