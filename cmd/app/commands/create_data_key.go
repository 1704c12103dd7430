package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	keyvaultUsecase "github.com/allisson/phivault/internal/keyvault/usecase"
)

// RunCreateDataKey provisions the data key for the given alternate name.
// The operation is idempotent: if the key already exists it is left untouched
// and its identity is printed. Key material is never written to output.
//
// Requirements: Database must be migrated and KMS_KEY_URI must be set.
func RunCreateDataKey(
	ctx context.Context,
	dataKeyUseCase keyvaultUsecase.DataKeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	altName string,
) error {
	if altName == "" {
		return fmt.Errorf("alt name must not be empty")
	}

	logger.Info("provisioning data key", slog.String("alt_name", altName))

	dataKey, err := dataKeyUseCase.GetOrCreate(ctx, altName)
	if err != nil {
		return fmt.Errorf("failed to provision data key: %w", err)
	}

	logger.Info("data key ready",
		slog.String("alt_name", dataKey.AltName),
		slog.String("data_key_id", dataKey.ID.String()),
	)

	fmt.Fprintf(writer, "Data key ready\n")
	fmt.Fprintf(writer, "  ID:       %s\n", dataKey.ID)
	fmt.Fprintf(writer, "  Alt name: %s\n", dataKey.AltName)
	fmt.Fprintf(writer, "  Created:  %s\n", dataKey.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}
