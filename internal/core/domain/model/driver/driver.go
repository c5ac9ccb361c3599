package driver

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	// ErrNameIsRequired is returned when creating a driver without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrDriverIsNotConstructed is returned when using an improperly initialized Driver.
	ErrDriverIsNotConstructed = errors.New("Driver must be created via NewDriver or RestoreDriver constructor")
	// ErrDriverIsDeactivated is returned when changing availability of a soft-deleted driver.
	ErrDriverIsDeactivated = errors.New("driver is deactivated")
)

// Driver is the aggregate root for a delivery driver.
//
// Business rules:
//   - a driver must have a valid UUID and a non-empty name
//   - status changes are rejected once the driver is deactivated
//   - position updates apply last-write-wins on the sample's recorded
//     time, so late-arriving samples never roll the position backwards
type Driver struct {
	id     kernel.UUID
	name   string
	status Status

	lastPosition *kernel.GeoPoint
	lastSeenAt   *time.Time

	isActive bool

	guard guard.ConstructorGuard
}

// NewDriver creates an active driver in the Available state with no
// known position. The first ingested location sample fills the position.
func NewDriver(id kernel.UUID, name string) (*Driver, error) {
	d := &Driver{
		status:   StatusAvailable,
		isActive: true,
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
	); err != nil {
		return nil, err
	}

	return d, nil
}

// RestoreDriver reconstructs a driver aggregate from persistent storage.
func RestoreDriver(
	id kernel.UUID,
	name string,
	status Status,
	lastPosition *kernel.GeoPoint,
	lastSeenAt *time.Time,
	isActive bool,
) (*Driver, error) {
	d := &Driver{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	if lastPosition != nil {
		if err := lastPosition.Validate(); err != nil {
			return nil, err
		}
		p := *lastPosition
		d.lastPosition = &p
	}
	if lastSeenAt != nil {
		t := *lastSeenAt
		d.lastSeenAt = &t
	}

	d.status = status
	d.isActive = isActive
	return d, nil
}

// Validate ensures the Driver was created through a constructor.
func (d *Driver) Validate() error {
	if d == nil {
		return ErrDriverIsNotConstructed
	}
	return d.guard.Validate(ErrDriverIsNotConstructed)
}

// IsEqual compares two drivers by identifier.
func (d *Driver) IsEqual(other *Driver) bool {
	return other != nil && d.id.IsEqual(other.id)
}

// ID returns the driver's unique identifier.
func (d *Driver) ID() kernel.UUID {
	return d.id
}

// Name returns the driver's display name.
func (d *Driver) Name() string {
	return d.name
}

// Status returns the current availability status.
func (d *Driver) Status() Status {
	return d.status
}

// LastPosition returns the most recent known position, or nil when the
// driver has never reported one.
func (d *Driver) LastPosition() *kernel.GeoPoint {
	return d.lastPosition
}

// LastSeenAt returns the recorded time of the most recent position sample.
func (d *Driver) LastSeenAt() *time.Time {
	return d.lastSeenAt
}

// IsActive reports whether the driver is not soft-deleted.
func (d *Driver) IsActive() bool {
	return d.isActive
}

// IsDispatchable reports whether the assignment engine may consider this
// driver: active and currently available.
func (d *Driver) IsDispatchable() bool {
	return d.isActive && d.status == StatusAvailable
}

// MarkBusy records that the driver started executing an order.
func (d *Driver) MarkBusy() error {
	return d.setStatus(StatusBusy)
}

// MarkAvailable records that the driver finished or lost an order and can
// receive assignments again.
func (d *Driver) MarkAvailable() error {
	return d.setStatus(StatusAvailable)
}

// GoOffline removes the driver from dispatch consideration without
// deactivating the account.
func (d *Driver) GoOffline() error {
	return d.setStatus(StatusOffline)
}

// UpdatePosition applies a location sample. Samples older than the current
// position are ignored, so out-of-order delivery from the ingestion
// pipeline cannot move the driver backwards in time.
func (d *Driver) UpdatePosition(position kernel.GeoPoint, recordedAt time.Time) error {
	if err := position.Validate(); err != nil {
		return err
	}

	if d.lastSeenAt != nil && !recordedAt.After(*d.lastSeenAt) {
		return nil
	}

	p := position
	t := recordedAt
	d.lastPosition = &p
	d.lastSeenAt = &t
	return nil
}

// Deactivate soft-deletes the driver. The driver goes offline and is
// excluded from assignment; historical orders keep referencing it.
// Deactivating twice is a no-op.
func (d *Driver) Deactivate() {
	d.isActive = false
	d.status = StatusOffline
}

func (d *Driver) setStatus(s Status) error {
	if !d.isActive {
		return ErrDriverIsDeactivated
	}
	d.status = s
	return nil
}

func (d *Driver) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *Driver) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}
	d.name = name
	return nil
}
