package repositories

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateRelationship is returned when a like or follow already exists.
	ErrDuplicateRelationship = errors.New("relationship already exists")
	// ErrSelfReference is returned when a user targets themselves with a follow.
	ErrSelfReference = errors.New("cannot target yourself")
	// ErrAlreadyExists is returned when a unique account attribute is taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConsistencyRecoveryNeeded is returned when a denormalized counter
	// could not be brought back in line with its source rows.
	ErrConsistencyRecoveryNeeded = errors.New("counter consistency recovery needed")
)

// translate maps gorm errors onto the repository sentinels. dup is the sentinel
// used for unique violations, which differs between relationships and accounts.
func translate(err error, dup error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return dup
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrNotFound
	}
	return err
}
