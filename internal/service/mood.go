package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yourname/moodtracker/internal"
	"github.com/yourname/moodtracker/internal/storage"
)

var validate = validator.New()

type RegisterUserRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

func ValidateRegisterUserRequest(req *RegisterUserRequest) error {
	return validate.Struct(req)
}

// RegisterUser creates a user with a fresh access token.
func RegisterUser(ctx context.Context, users storage.UserRepository, req *RegisterUserRequest) (*internal.User, error) {
	user := &internal.User{
		ID:           req.UserID,
		Token:        uuid.NewString(),
		Name:         req.Name,
		RegisteredAt: time.Now().UTC(),
	}
	if err := users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

type MoodRequest struct {
	Mood   string `json:"mood" validate:"required"`
	Reason string `json:"reason,omitempty" validate:"omitempty"`
}

func ValidateMoodRequest(req *MoodRequest) error {
	return validate.Struct(req)
}

// ResolveWeight maps a mood label to its weight: the user's personal
// moods first, then the global catalog. Unknown labels are a
// ValidationError.
func ResolveWeight(ctx context.Context, personal storage.PersonalMoodRepository, userID, mood string) (int, error) {
	overrides, err := personal.GetPersonalMoods(ctx, userID)
	if err != nil {
		return 0, &internal.QueryError{Op: "personal moods", Err: err}
	}
	if w, ok := overrides[mood]; ok {
		return w, nil
	}
	if w, ok := internal.MoodCatalog[mood]; ok {
		return w, nil
	}
	return 0, internal.NewValidationError("unknown mood: %q", mood)
}

// SubmitMood records one mood observation at the current instant, with
// the weight resolved from the user's overrides or the global catalog.
func SubmitMood(ctx context.Context, events storage.EventRepository, personal storage.PersonalMoodRepository, user *internal.User, req *MoodRequest) (*internal.MoodEvent, error) {
	weight, err := ResolveWeight(ctx, personal, user.ID, req.Mood)
	if err != nil {
		return nil, err
	}

	event := &internal.MoodEvent{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Mood:       req.Mood,
		Weight:     weight,
		Reason:     req.Reason,
		OccurredAt: time.Now().UTC(),
	}
	if err := events.SaveMoodEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

type PersonalMoodRequest struct {
	Mood   string `json:"mood" validate:"required"`
	Weight int    `json:"weight" validate:"gte=-2,lte=2"`
}

func ValidatePersonalMoodRequest(req *PersonalMoodRequest) error {
	return validate.Struct(req)
}

// SetPersonalMood stores a per-user label override consulted before the
// global catalog.
func SetPersonalMood(ctx context.Context, personal storage.PersonalMoodRepository, user *internal.User, req *PersonalMoodRequest) error {
	return personal.SetPersonalMood(ctx, user.ID, req.Mood, req.Weight)
}

// ListMoodCatalog returns a copy of the global label -> weight table.
func ListMoodCatalog() map[string]int {
	catalog := make(map[string]int, len(internal.MoodCatalog))
	for mood, weight := range internal.MoodCatalog {
		catalog[mood] = weight
	}
	return catalog
}
