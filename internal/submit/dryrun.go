package submit

import (
	"context"
	"encoding/json"

	"github.com/dalemusser/applyform/internal/application"
	"github.com/dalemusser/applyform/logging"
	"go.uber.org/zap"
)

// DryRun logs the payload it would have sent and reports success. It is
// meant for local development without a collection endpoint.
type DryRun struct {
	Logger *zap.Logger
}

// Submit logs d at info level.
func (s DryRun) Submit(ctx context.Context, d application.Draft) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	logger.Info("dry run: application not sent",
		zap.String("submission_id", newAttemptID()),
		zap.Int("payload_bytes", len(data)))
	logger.Debug("dry run payload",
		zap.String("first_name", logging.Mask(d.FirstName)),
		zap.String("email", logging.Mask(d.Email)),
		zap.String("country_code", d.CountryCode),
		zap.String("sales_experience", d.SalesExperience))
	return nil
}
