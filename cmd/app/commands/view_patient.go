package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	recordsUsecase "github.com/allisson/phivault/internal/records/usecase"
)

// RunViewPatient loads a patient record and prints the view projected for the
// given roles as indented JSON. With no roles only the base fields appear.
//
// Requirements: Database must be migrated and the patient must exist.
func RunViewPatient(
	ctx context.Context,
	recordUseCase recordsUsecase.RecordUseCase,
	writer io.Writer,
	id string,
	roles []string,
) error {
	if id == "" {
		return fmt.Errorf("patient id must not be empty")
	}

	view, err := recordUseCase.ViewPatient(ctx, id, roles)
	if err != nil {
		return fmt.Errorf("failed to view patient: %w", err)
	}

	output, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode view: %w", err)
	}

	fmt.Fprintln(writer, string(output))
	return nil
}
