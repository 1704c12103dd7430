package usecase

import (
	"context"
	"time"

	"github.com/allisson/phivault/internal/metrics"
	recordsDomain "github.com/allisson/phivault/internal/records/domain"
)

// recordUseCaseWithMetrics decorates RecordUseCase with metrics instrumentation.
type recordUseCaseWithMetrics struct {
	next    RecordUseCase
	metrics metrics.BusinessMetrics
}

// NewRecordUseCaseWithMetrics wraps a RecordUseCase with metrics recording.
func NewRecordUseCaseWithMetrics(useCase RecordUseCase, m metrics.BusinessMetrics) RecordUseCase {
	return &recordUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// record reports one operation's count and duration with its outcome status.
func (r *recordUseCaseWithMetrics) record(
	ctx context.Context,
	operation string,
	start time.Time,
	err error,
) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.RecordOperation(ctx, "records", operation, status)
	r.metrics.RecordDuration(ctx, "records", operation, time.Since(start), status)
}

// SavePatient records metrics for patient save operations.
func (r *recordUseCaseWithMetrics) SavePatient(
	ctx context.Context,
	patient *recordsDomain.Patient,
) error {
	start := time.Now()
	err := r.next.SavePatient(ctx, patient)
	r.record(ctx, "patient_save", start, err)
	return err
}

// GetPatient records metrics for patient load operations.
func (r *recordUseCaseWithMetrics) GetPatient(
	ctx context.Context,
	id string,
) (*recordsDomain.Patient, error) {
	start := time.Now()
	patient, err := r.next.GetPatient(ctx, id)
	r.record(ctx, "patient_get", start, err)
	return patient, err
}

// FindPatientsByEmail records metrics for email search operations.
func (r *recordUseCaseWithMetrics) FindPatientsByEmail(
	ctx context.Context,
	email string,
) ([]*recordsDomain.Patient, error) {
	start := time.Now()
	patients, err := r.next.FindPatientsByEmail(ctx, email)
	r.record(ctx, "patient_find_by_email", start, err)
	return patients, err
}

// FindPatientsBySSN records metrics for SSN search operations.
func (r *recordUseCaseWithMetrics) FindPatientsBySSN(
	ctx context.Context,
	ssn string,
) ([]*recordsDomain.Patient, error) {
	start := time.Now()
	patients, err := r.next.FindPatientsBySSN(ctx, ssn)
	r.record(ctx, "patient_find_by_ssn", start, err)
	return patients, err
}

// ViewPatient records metrics for role-projected view operations.
func (r *recordUseCaseWithMetrics) ViewPatient(
	ctx context.Context,
	id string,
	roles []string,
) (map[string]any, error) {
	start := time.Now()
	view, err := r.next.ViewPatient(ctx, id, roles)
	r.record(ctx, "patient_view", start, err)
	return view, err
}

// SaveMessage records metrics for message save operations.
func (r *recordUseCaseWithMetrics) SaveMessage(
	ctx context.Context,
	message *recordsDomain.Message,
) error {
	start := time.Now()
	err := r.next.SaveMessage(ctx, message)
	r.record(ctx, "message_save", start, err)
	return err
}

// GetMessage records metrics for message load operations.
func (r *recordUseCaseWithMetrics) GetMessage(
	ctx context.Context,
	id string,
) (*recordsDomain.Message, error) {
	start := time.Now()
	message, err := r.next.GetMessage(ctx, id)
	r.record(ctx, "message_get", start, err)
	return message, err
}
