package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/goalpath/goalpath/internal/apperr"
	"github.com/goalpath/goalpath/internal/model"
	"github.com/goalpath/goalpath/internal/notify"
	"github.com/goalpath/goalpath/internal/repository"
)

const (
	earthRadiusMeters     = 6371000
	allowedDistanceMeters = 50
)

// ValidationService is the state machine that moves a goal instance from
// pending to validated under the photo, location and team strategies. It
// holds no state of its own: every call loads what it needs from the
// repositories and writes results back immediately.
type ValidationService struct {
	goals       repository.GoalRepository
	validations repository.ValidationRepository
	teams       repository.TeamRepository
	bridge      notify.Bridge
	now         func() time.Time
}

func NewValidationService(
	goals repository.GoalRepository,
	validations repository.ValidationRepository,
	teams repository.TeamRepository,
	bridge notify.Bridge,
) *ValidationService {
	return &ValidationService{
		goals:       goals,
		validations: validations,
		teams:       teams,
		bridge:      bridge,
		now:         time.Now,
	}
}

// SubmitPhoto records a completed photo validation for the instance and
// returns the stored photo URL.
func (s *ValidationService) SubmitPhoto(instanceID, requesterID, photoURL string) (string, error) {
	goal, err := s.loadInstance(instanceID)
	if err != nil {
		return "", err
	}

	if goal.UserID != requesterID {
		return "", apperr.Forbidden("only the goal owner can submit a validation")
	}
	if goal.ValidationType != model.ValidationTypePhoto {
		return "", apperr.InvalidType("goal is not configured for photo validation")
	}

	completed, err := s.validations.HasCompleted(instanceID)
	if err != nil {
		return "", apperr.Internal(err)
	}
	if completed {
		return "", apperr.Conflict("instance already validated")
	}

	err = s.validations.InsertCompleted(goal.ID, instanceID, photoURL, s.now())
	if errors.Is(err, repository.ErrAlreadyValidated) {
		return "", apperr.Conflict("instance already validated")
	}
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to save validation", err)
	}

	return photoURL, nil
}

// locationPayload is the persisted evidence for a location validation.
type locationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SubmitLocation checks the supplied point against the goal's anchor. Within
// 50 meters (inclusive) the validation is persisted and true is returned.
// Beyond that the attempt is a soft failure: false, and no state change, so
// the client may retry from a better position.
func (s *ValidationService) SubmitLocation(instanceID, requesterID string, latitude, longitude float64) (bool, error) {
	goal, err := s.loadInstance(instanceID)
	if err != nil {
		return false, err
	}

	if goal.UserID != requesterID {
		return false, apperr.Forbidden("not the goal owner")
	}

	if goal.ValidationType != model.ValidationTypeLocation {
		return false, apperr.InvalidType("goal does not use location validation")
	}
	if !goal.HasAnchor() {
		return false, apperr.InvalidType("goal has no anchor location")
	}

	completed, err := s.validations.HasCompleted(instanceID)
	if err != nil {
		return false, apperr.Internal(err)
	}
	if completed {
		return false, apperr.Conflict("instance already validated")
	}

	distance := haversine(*goal.Latitude, *goal.Longitude, latitude, longitude)
	if !withinAllowedDistance(distance) {
		return false, nil
	}

	payload, err := json.Marshal(locationPayload{Latitude: latitude, Longitude: longitude})
	if err != nil {
		return false, apperr.Internal(err)
	}

	err = s.validations.InsertCompleted(goal.ID, instanceID, string(payload), s.now())
	if errors.Is(err, repository.ErrAlreadyValidated) {
		return false, apperr.Conflict("instance already validated")
	}
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "failed to save validation", err)
	}

	return true, nil
}

// withinAllowedDistance reports whether a measured distance passes the
// location check. The 50 meter radius is inclusive.
func withinAllowedDistance(distance float64) bool {
	return distance <= allowedDistanceMeters
}

// haversine returns the great-circle distance between two points in meters.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// RequestTeam opens a pending validation for a team goal instance,
// initializes the member acceptance ledger and fans out one alert per
// member. A duplicate alert for any member fails the whole request with
// Conflict; alerts already inserted for other members are not rolled back.
func (s *ValidationService) RequestTeam(instanceID string, requester *model.User) error {
	goal, err := s.loadInstance(instanceID)
	if err != nil {
		return err
	}

	if goal.UserID != requester.ID {
		return apperr.Forbidden("only the goal owner can request team validation")
	}
	if !goal.IsTeam() {
		return apperr.InvalidType("goal is not a team goal")
	}

	members, err := s.teams.Members(goal.ID)
	if errors.Is(err, repository.ErrNoTeamMembers) {
		return apperr.NotFound("no team members")
	}
	if err != nil {
		return apperr.Internal(err)
	}

	if err := s.validations.OpenPending(goal.ID, instanceID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to open validation", err)
	}

	if err := s.teams.InitLedger(instanceID, members, requester.ID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to initialize ledger", err)
	}

	for _, memberID := range members {
		if memberID == requester.ID {
			continue
		}

		err := s.bridge.Dispatch(notify.Alert{
			RecipientID: memberID,
			SenderID:    requester.ID,
			SenderName:  requester.DisplayName(),
			GoalID:      goal.ID,
			InstanceID:  instanceID,
			GoalTitle:   goal.Title,
		})
		if errors.Is(err, repository.ErrDuplicateNotification) {
			return apperr.Conflict("duplicate notification")
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to dispatch notification", err)
		}
	}

	return nil
}

// AcceptTeam marks one member's ledger entry accepted and reports whether
// full consensus was reached. On consensus the validation record is
// completed and the fan-out alerts are deleted best effort.
func (s *ValidationService) AcceptTeam(instanceID, memberID string) (bool, error) {
	err := s.teams.AcceptEntry(instanceID, memberID)
	if errors.Is(err, repository.ErrAlreadyAccepted) {
		return false, apperr.Conflict("member already accepted")
	}
	if errors.Is(err, repository.ErrEntryNotFound) {
		return false, apperr.NotFound("no pending validation for this member")
	}
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "failed to accept", err)
	}

	consensus, err := s.teams.Consensus(instanceID)
	if err != nil {
		return false, apperr.Internal(err)
	}
	if !consensus.AllAccepted() {
		return false, nil
	}

	err = s.validations.CompleteIfPending(instanceID, s.now())
	if err != nil && !errors.Is(err, repository.ErrAlreadyValidated) {
		return false, apperr.Wrap(apperr.KindInternal, "failed to complete validation", err)
	}

	if err := s.bridge.DeleteFor(instanceID); err != nil {
		// The validation is complete regardless; stale alerts are tolerable.
		slog.Error("failed to delete notifications after consensus", "error", err, "instance_id", instanceID)
	}

	return true, nil
}

func (s *ValidationService) loadInstance(instanceID string) (*model.GoalWithInstance, error) {
	goal, err := s.goals.ByInstanceID(instanceID)
	if errors.Is(err, repository.ErrInstanceNotFound) {
		return nil, apperr.NotFound("goal instance not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, fmt.Sprintf("failed to load instance %s", instanceID), err)
	}
	return goal, nil
}
