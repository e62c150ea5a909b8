package medication

import (
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/security"
)

const (
	maxMedicineNameRunes = 120
	maxDosageRunes       = 60
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Numeric chat or channel IDs. Phone numbers are not deliverable over chat.
	chatIDRe = regexp.MustCompile(`^-?\d{5,20}$`)
	// Discord snowflakes.
	snowflakeRe = regexp.MustCompile(`^\d{17,20}$`)
)

// ChatFormat names the chat backend whose ID format chat contacts must follow.
type ChatFormat string

const (
	ChatTelegram ChatFormat = "telegram"
	ChatDiscord  ChatFormat = "discord"
)

// CreateScheduleRequest is the input for Service.Create.
type CreateScheduleRequest struct {
	MedicineName string   `json:"medicine_name"`
	Dosage       string   `json:"dosage"`
	Times        []string `json:"times"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Channel      string   `json:"channel,omitempty"`
	Contact      string   `json:"contact"`
}

// UpdateScheduleRequest carries only the fields being changed.
type UpdateScheduleRequest struct {
	Dosage    *string  `json:"dosage,omitempty"`
	Times     []string `json:"times,omitempty"`
	StartDate *string  `json:"start_date,omitempty"`
	EndDate   *string  `json:"end_date,omitempty"`
	Channel   *string  `json:"channel,omitempty"`
	Contact   *string  `json:"contact,omitempty"`
}

// Validate normalizes the request into a schedule draft without ID or owner.
func (r *CreateScheduleRequest) Validate() (*Schedule, error) {
	name, err := cleanText("medicine_name", r.MedicineName, maxMedicineNameRunes)
	if err != nil {
		return nil, err
	}
	dosage, err := cleanText("dosage", r.Dosage, maxDosageRunes)
	if err != nil {
		return nil, err
	}

	s := &Schedule{MedicineName: name, Dosage: dosage}
	if err := applyTimes(s, r.Times); err != nil {
		return nil, err
	}
	if err := applyDates(s, r.StartDate, r.EndDate); err != nil {
		return nil, err
	}
	if err := applyContact(s, r.Channel, r.Contact); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyTo copies the changed fields onto a copy of s and revalidates it.
func (r *UpdateScheduleRequest) ApplyTo(s *Schedule) (*Schedule, error) {
	next := *s
	next.Times = append([]TimeOfDay(nil), s.Times...)

	if r.Dosage != nil {
		dosage, err := cleanText("dosage", *r.Dosage, maxDosageRunes)
		if err != nil {
			return nil, err
		}
		next.Dosage = dosage
	}
	if r.Times != nil {
		if err := applyTimes(&next, r.Times); err != nil {
			return nil, err
		}
	}
	if r.StartDate != nil || r.EndDate != nil {
		start, end := next.StartDate.String(), next.EndDate.String()
		if r.StartDate != nil {
			start = *r.StartDate
		}
		if r.EndDate != nil {
			end = *r.EndDate
		}
		if err := applyDates(&next, start, end); err != nil {
			return nil, err
		}
	}
	if r.Channel != nil || r.Contact != nil {
		channel, contact := string(next.Channel), next.Contact
		if r.Channel != nil {
			channel = *r.Channel
		}
		if r.Contact != nil {
			contact = *r.Contact
			// A new contact without a channel re-infers it.
			if r.Channel == nil {
				channel = ""
			}
		}
		if err := applyContact(&next, channel, contact); err != nil {
			return nil, err
		}
	}
	return &next, nil
}

func cleanText(field, raw string, maxRunes int) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", apperrors.Validation("%s is required", field)
	}
	if err := security.ValidateText(v, maxRunes); err != nil {
		return "", apperrors.Validation("%s: %v", field, err)
	}
	return v, nil
}

func applyTimes(s *Schedule, raw []string) error {
	if len(raw) == 0 {
		return apperrors.Validation("at least one time is required")
	}
	times, err := NormalizeTimes(raw)
	if err != nil {
		return apperrors.Validation("%v", err)
	}
	s.Times = times
	return nil
}

func applyDates(s *Schedule, startRaw, endRaw string) error {
	start, err := ParseDate(strings.TrimSpace(startRaw))
	if err != nil {
		return apperrors.Validation("start_date: %v", err)
	}
	end, err := ParseDate(strings.TrimSpace(endRaw))
	if err != nil {
		return apperrors.Validation("end_date: %v", err)
	}
	if end.Before(start) {
		return apperrors.Validation("end_date %s is before start_date %s", end, start)
	}
	s.StartDate, s.EndDate = start, end
	return nil
}

func applyContact(s *Schedule, channelRaw, contactRaw string) error {
	contact := strings.TrimSpace(contactRaw)
	if contact == "" {
		return apperrors.Validation("contact is required")
	}

	channel := Channel(strings.ToLower(strings.TrimSpace(channelRaw)))
	if channel == "" {
		channel = InferChannel(contact)
	}
	if !channel.Valid() {
		return apperrors.Validation("channel must be %q or %q", ChannelEmail, ChannelChat)
	}
	if err := ValidateContact(channel, contact); err != nil {
		return err
	}
	s.Channel, s.Contact = channel, contact
	return nil
}

// InferChannel picks email for addresses that look like email and chat otherwise.
func InferChannel(contact string) Channel {
	if strings.Contains(contact, "@") {
		return ChannelEmail
	}
	return ChannelChat
}

func ValidateContact(channel Channel, contact string) error {
	switch channel {
	case ChannelEmail:
		if !emailRe.MatchString(contact) {
			return apperrors.Validation("invalid email address %q", contact)
		}
	case ChannelChat:
		if !chatIDRe.MatchString(contact) {
			return apperrors.Validation("chat contact must be a numeric chat or channel id, got %q", contact)
		}
	default:
		return apperrors.Validation("unknown channel %q", channel)
	}
	return nil
}

// ValidateChatID checks a chat contact against the ID format of the
// configured backend. An empty format only applies the generic check.
func ValidateChatID(format ChatFormat, contact string) error {
	if err := ValidateContact(ChannelChat, contact); err != nil {
		return err
	}
	switch format {
	case ChatTelegram:
		if _, err := strconv.ParseInt(contact, 10, 64); err != nil {
			return apperrors.Validation("telegram chat id %q is out of range", contact)
		}
	case ChatDiscord:
		if !snowflakeRe.MatchString(contact) {
			return apperrors.Validation("discord channel id must be 17 to 20 digits, got %q", contact)
		}
		if _, err := strconv.ParseUint(contact, 10, 64); err != nil {
			return apperrors.Validation("discord channel id %q is out of range", contact)
		}
	}
	return nil
}
