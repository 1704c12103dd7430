package usecase

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/allisson/phivault/internal/audit"
	apperrors "github.com/allisson/phivault/internal/errors"
	keyvaultDomain "github.com/allisson/phivault/internal/keyvault/domain"
)

// dataKeySize is the size in bytes of generated data keys (AES-256).
const dataKeySize = 32

// auditActor identifies the key vault in audit events.
const auditActor = "key-vault"

// dataKeyUseCase implements DataKeyUseCase.
//
// Unwrapped keys are cached in a DataKeyChain so the hot encrypt/decrypt path
// never touches the database or the KMS. Cache misses for the same alt name
// are collapsed through a singleflight group; the database uniqueness
// constraint on alt_name settles races between processes.
type dataKeyUseCase struct {
	dataKeyRepo DataKeyRepository
	keeper      keyvaultDomain.KMSKeeper
	chain       *keyvaultDomain.DataKeyChain
	auditSink   audit.Sink
	group       singleflight.Group
}

// GetOrCreate returns the unwrapped data key for the alt name, creating it on
// first use.
func (d *dataKeyUseCase) GetOrCreate(
	ctx context.Context,
	altName string,
) (*keyvaultDomain.DataKey, error) {
	if dataKey, ok := d.chain.Get(altName); ok {
		return dataKey, nil
	}

	result, err, _ := d.group.Do(altName, func() (any, error) {
		// A concurrent caller may have populated the chain while this call
		// waited on the group.
		if dataKey, ok := d.chain.Get(altName); ok {
			return dataKey, nil
		}
		return d.loadOrProvision(ctx, altName)
	})
	if err != nil {
		return nil, err
	}
	return result.(*keyvaultDomain.DataKey), nil
}

// Get returns the unwrapped data key for the alt name without creating it.
func (d *dataKeyUseCase) Get(
	ctx context.Context,
	altName string,
) (*keyvaultDomain.DataKey, error) {
	if dataKey, ok := d.chain.Get(altName); ok {
		return dataKey, nil
	}

	result, err, _ := d.group.Do(altName, func() (any, error) {
		if dataKey, ok := d.chain.Get(altName); ok {
			return dataKey, nil
		}

		dataKey, err := d.dataKeyRepo.GetByAltName(ctx, altName)
		if err != nil {
			return nil, err
		}
		if err := d.unwrap(ctx, dataKey); err != nil {
			return nil, err
		}
		d.chain.Put(dataKey)
		return dataKey, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*keyvaultDomain.DataKey), nil
}

// loadOrProvision fetches the key from the repository, provisioning a new one
// when none exists. A create that loses the uniqueness race falls back to
// reading the winner's key.
func (d *dataKeyUseCase) loadOrProvision(
	ctx context.Context,
	altName string,
) (*keyvaultDomain.DataKey, error) {
	dataKey, err := d.dataKeyRepo.GetByAltName(ctx, altName)
	if err == nil {
		if err := d.unwrap(ctx, dataKey); err != nil {
			return nil, err
		}
		d.chain.Put(dataKey)
		return dataKey, nil
	}
	if !apperrors.Is(err, keyvaultDomain.ErrDataKeyNotFound) {
		return nil, err
	}

	dataKey, err = d.provision(ctx, altName)
	if err != nil {
		if apperrors.Is(err, keyvaultDomain.ErrDataKeyAlreadyExists) {
			// Another process created the key first; use theirs.
			dataKey, err = d.dataKeyRepo.GetByAltName(ctx, altName)
			if err != nil {
				return nil, err
			}
			if err := d.unwrap(ctx, dataKey); err != nil {
				return nil, err
			}
			d.chain.Put(dataKey)
			return dataKey, nil
		}
		return nil, err
	}

	d.chain.Put(dataKey)
	return dataKey, nil
}

// provision generates fresh key material, wraps it with the KMS keeper and
// persists the wrapped form.
func (d *dataKeyUseCase) provision(
	ctx context.Context,
	altName string,
) (*keyvaultDomain.DataKey, error) {
	key := make([]byte, dataKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate data key material")
	}

	encryptedKey, err := d.keeper.Encrypt(ctx, key)
	if err != nil {
		keyvaultDomain.Zero(key)
		return nil, keyvaultDomain.ErrKeyUnavailable
	}

	dataKey := &keyvaultDomain.DataKey{
		ID:           uuid.Must(uuid.NewV7()),
		AltName:      altName,
		EncryptedKey: encryptedKey,
		Key:          key,
		CreatedAt:    time.Now().UTC(),
	}

	if err := d.dataKeyRepo.Create(ctx, dataKey); err != nil {
		keyvaultDomain.Zero(key)
		return nil, err
	}

	if d.auditSink != nil {
		d.auditSink.Log(ctx, audit.NewEvent(audit.EventDataKeyCreated, auditActor, map[string]any{
			"data_key_id": dataKey.ID.String(),
			"alt_name":    dataKey.AltName,
		}))
	}

	return dataKey, nil
}

// unwrap decrypts the key material through the KMS keeper, populating the
// plaintext Key field.
func (d *dataKeyUseCase) unwrap(ctx context.Context, dataKey *keyvaultDomain.DataKey) error {
	key, err := d.keeper.Decrypt(ctx, dataKey.EncryptedKey)
	if err != nil {
		return keyvaultDomain.ErrKeyUnavailable
	}
	dataKey.Key = key
	return nil
}

// NewDataKeyUseCase creates a new data key use case instance.
func NewDataKeyUseCase(
	dataKeyRepo DataKeyRepository,
	keeper keyvaultDomain.KMSKeeper,
	chain *keyvaultDomain.DataKeyChain,
	auditSink audit.Sink,
) DataKeyUseCase {
	return &dataKeyUseCase{
		dataKeyRepo: dataKeyRepo,
		keeper:      keeper,
		chain:       chain,
		auditSink:   auditSink,
	}
}
