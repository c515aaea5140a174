package locations

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/haunted-atlas/haunted_atlas/internal/users"
)

var validate = validator.New()

// decimalPattern limits coordinates to plain decimal notation. ParseFloat on
// its own also takes hex floats, underscores, "Inf" and "NaN".
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// UserLookup resolves creator references to users.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (users.User, error)
}

// Service exposes location operations and populates creator usernames.
type Service struct {
	repo  Repository
	users UserLookup
	now   func() time.Time
}

// NewService builds a location service instance.
func NewService(repo Repository, lookup UserLookup) *Service {
	return &Service{repo: repo, users: lookup, now: time.Now}
}

// Create validates the submission and stores it attributed to input.CreatorID.
func (s *Service) Create(ctx context.Context, input CreateInput) (Location, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Latitude = strings.TrimSpace(input.Latitude)
	input.Longitude = strings.TrimSpace(input.Longitude)

	verr := &ValidationError{}
	if err := validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Location{}, err
		}
		for _, fe := range fieldErrs {
			verr.add(strings.ToLower(fe.Field()), "is required")
		}
	}

	lat, latOK := parseCoordinate(verr, "latitude", input.Latitude, 90)
	lng, lngOK := parseCoordinate(verr, "longitude", input.Longitude, 180)
	if len(verr.Fields) > 0 || !latOK || !lngOK {
		return Location{}, verr
	}

	loc := Location{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Latitude:    lat,
		Longitude:   lng,
		Behavior:    strings.TrimSpace(input.Behavior),
		Documented:  input.Documented,
		CreatedBy:   input.CreatorID,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.repo.Create(ctx, loc); err != nil {
		return Location{}, err
	}

	// The row is already stored; a failed lookup only drops the username.
	if err := s.populate(ctx, []*Location{&loc}); err != nil {
		loc.CreatorUsername = ""
	}
	return loc, nil
}

// List returns all locations with creator usernames where resolvable.
func (s *Service) List(ctx context.Context) ([]Location, error) {
	locs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	ptrs := make([]*Location, len(locs))
	for i := range locs {
		ptrs[i] = &locs[i]
	}
	if err := s.populate(ctx, ptrs); err != nil {
		return nil, err
	}
	return locs, nil
}

// Get returns one location or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (Location, error) {
	loc, err := s.repo.Get(ctx, id)
	if err != nil {
		return Location{}, err
	}
	if err := s.populate(ctx, []*Location{&loc}); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// populate fills CreatorUsername. Dangling references are left blank.
func (s *Service) populate(ctx context.Context, locs []*Location) error {
	if s.users == nil {
		return nil
	}
	names := make(map[string]string)
	for _, loc := range locs {
		if loc.CreatedBy == "" {
			continue
		}
		name, seen := names[loc.CreatedBy]
		if !seen {
			user, err := s.users.FindByID(ctx, loc.CreatedBy)
			switch {
			case err == nil:
				name = user.Username
			case errors.Is(err, users.ErrNotFound):
				name = ""
			default:
				return err
			}
			names[loc.CreatedBy] = name
		}
		loc.CreatorUsername = name
	}
	return nil
}

func parseCoordinate(verr *ValidationError, field, raw string, limit float64) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	if !decimalPattern.MatchString(raw) {
		verr.add(field, "must be a number")
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		verr.add(field, "must be a number")
		return 0, false
	}
	if v < -limit || v > limit {
		verr.add(field, "must be between -"+strconv.FormatFloat(limit, 'f', -1, 64)+" and "+strconv.FormatFloat(limit, 'f', -1, 64))
		return 0, false
	}
	return v, true
}
