package pricewatch

import (
	"github.com/tcgnakama/pricewatch/pricewatch/appraisal"
	"github.com/tcgnakama/pricewatch/pricewatch/database"
	"github.com/tcgnakama/pricewatch/pricewatch/database/repositories"
	"github.com/tcgnakama/pricewatch/pricewatch/services"
	"github.com/tcgnakama/pricewatch/pricewatch/tracker"
)

func New(cfg Config, version string, commit string) *App {
	return &App{
		Cfg:     cfg,
		Version: version,
		Commit:  commit,
	}
}

// App holds the wired engine. main.go constructs the pieces and hangs them
// here; nothing in App owns a goroutine.
type App struct {
	Cfg     Config
	Version string
	Commit  string

	DB                 *database.DB
	SnapshotRepository repositories.SnapshotRepository
	SettingRepository  repositories.SettingRepository
	SpacesService      *services.SpacesService

	Appraiser *appraisal.Service
	Runner    *tracker.Runner
	Trends    *tracker.TrendCalculator
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
