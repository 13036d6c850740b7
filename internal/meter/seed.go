package meter

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

const (
	_resourceCount = 10
	_meterCount    = 20
)

// Seed recreates the resource and meter tables and fills them with ten
// resources and twenty meters. Meter i belongs to resource "id<i%10>" and is
// an "odd" counter when (i/10 + i) is odd.
func Seed(tx *gorm.DB) error {
	if err := tx.Migrator().DropTable(&Meter{}, &Resource{}); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}

	if err := tx.AutoMigrate(&Resource{}, &Meter{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	if err := tx.Create(seedResources()).Error; err != nil {
		return fmt.Errorf("failed to create resources: %w", err)
	}

	if err := tx.Create(seedMeters(time.Now().UTC())).Error; err != nil {
		return fmt.Errorf("failed to create meters: %w", err)
	}

	slog.Info("Seeded meters", "resources", _resourceCount, "meters", _meterCount)

	return nil
}

func seedResources() []Resource {
	ret := make([]Resource, 0, _resourceCount)
	for i := range _resourceCount {
		ret = append(ret, Resource{
			ID:        fmt.Sprintf("id%d", i),
			UserID:    fmt.Sprintf("user%d", i),
			ProjectID: fmt.Sprintf("project%d", i),
		})
	}

	return ret
}

func seedMeters(now time.Time) []Meter {
	ret := make([]Meter, 0, _meterCount)
	for i := range _meterCount {
		parity := "even"
		if (i/10+i)%2 == 1 {
			parity = "odd"
		}

		ret = append(ret, Meter{
			CounterName:   parity,
			ResourceID:    fmt.Sprintf("id%d", i%10),
			CounterType:   parity,
			CounterUnit:   parity,
			CounterVolume: float64(i),
			Timestamp:     now,
		})
	}

	return ret
}
