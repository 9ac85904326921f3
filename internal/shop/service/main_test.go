package service

import (
	"testing"

	"github.com/victorydiv/etsyapp/internal/event"
	"github.com/victorydiv/etsyapp/internal/shop/repository"
	"github.com/victorydiv/etsyapp/internal/shop/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	services := NewServices(repos, db, event.NoopPublisher{}, zap.NewNop())
	return services, db
}
