package aligo

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field bounds accepted by the gateway.
const (
	MaxSenderLength = 16
	MaxBodyLength   = 2000
	MaxTitleLength  = 44
)

var (
	scheduleDatePattern = regexp.MustCompile(`^\d{8}$`)
	scheduleTimePattern = regexp.MustCompile(`^\d{4}$`)
)

// Normalize validates req and maps it onto the gateway's form fields.
// Credentials are injected as key, user_id and testmode_yn.
//
// The only side effect is opening and closing the MMS attachment to prove it
// is readable.
func Normalize(req MessageRequest, creds Credentials) (*NormalizedFields, error) {
	kind := normalizeKind(req.Kind)
	req.Sender = strings.TrimSpace(req.Sender)
	req.Receiver = strings.TrimSpace(req.Receiver)

	if err := validate(req, kind); err != nil {
		return nil, newDispatchError(ValidationError, "normalize", err)
	}

	if creds.APIKey == "" || creds.UserID == "" {
		return nil, newDispatchError(ValidationError, "normalize",
			errors.New("aligo credentials are not configured (ALIGO_API_KEY, ALIGO_USER_ID)"))
	}

	n := &NormalizedFields{Kind: kind}
	add := func(name, value string) {
		if value != "" {
			n.Fields = append(n.Fields, Field{Name: name, Value: value})
		}
	}

	add("key", creds.APIKey)
	add("user_id", creds.UserID)
	add("sender", req.Sender)
	add("receiver", req.Receiver)
	add("msg", req.Body)
	add("msg_type", string(kind))
	add("title", req.Title)
	add("destination", req.DestinationList)
	add("rdate", req.ScheduleDate)
	add("rtime", req.ScheduleTime)
	add("testmode_yn", testModeFlag(creds.TestMode))

	if kind == KindMMS {
		if err := checkAttachment(req.AttachmentPath); err != nil {
			return nil, newDispatchError(AttachmentNotFound, "normalize", err)
		}
		n.AttachmentPath = req.AttachmentPath
	}

	return n, nil
}

// normalizeKind upper-cases k and defaults an empty kind to SMS.
func normalizeKind(k MessageKind) MessageKind {
	if k == "" {
		return KindSMS
	}
	return MessageKind(strings.ToUpper(string(k)))
}

func validate(req MessageRequest, kind MessageKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown message type %q (expected SMS, LMS or MMS)", req.Kind)
	}

	if n := utf8.RuneCountInString(req.Sender); n < 1 || n > MaxSenderLength {
		return fmt.Errorf("sender must be 1-%d characters", MaxSenderLength)
	}
	if req.Receiver == "" {
		return errors.New("receiver is required")
	}
	for _, r := range strings.Split(req.Receiver, ",") {
		if strings.TrimSpace(r) == "" {
			return errors.New("receiver list contains an empty entry")
		}
	}
	if n := utf8.RuneCountInString(req.Body); n < 1 || n > MaxBodyLength {
		return fmt.Errorf("message must be 1-%d characters", MaxBodyLength)
	}

	if kind.RequiresTitle() && strings.TrimSpace(req.Title) == "" {
		return errors.New("title required for LMS/MMS")
	}
	if utf8.RuneCountInString(req.Title) > MaxTitleLength {
		return fmt.Errorf("title must be at most %d characters", MaxTitleLength)
	}

	if req.ScheduleDate != "" && !scheduleDatePattern.MatchString(req.ScheduleDate) {
		return errors.New("schedule date must be in YYYYMMDD format")
	}
	if req.ScheduleTime != "" && !scheduleTimePattern.MatchString(req.ScheduleTime) {
		return errors.New("schedule time must be in HHMM format")
	}

	return nil
}

// checkAttachment succeeds only for an existing regular file that can be opened.
func checkAttachment(path string) error {
	if path == "" {
		return errors.New("image path is required for MMS")
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("attachment %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("attachment %s is not a regular file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("attachment %s: %w", path, err)
	}
	return f.Close()
}

func testModeFlag(on bool) string {
	if on {
		return "Y"
	}
	return "N"
}
