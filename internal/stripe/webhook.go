package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is maximum allowed age of a signed payload
const DefaultTolerance = 5 * time.Minute

// ConstructEvent verifies the signature header against the raw payload and
// shared endpoint secret and decodes the payload into a typed Event. It is a
// pure check: no store access, no network.
//
// The header carries comma-separated elements of the form
// t=<unix timestamp>,v1=<hex hmac>, where the hmac is computed with
// SHA-256 over "<timestamp>.<payload>".
func ConstructEvent(payload []byte, sigHeader, secret string) (Event, error) {
	return constructEventAt(payload, sigHeader, secret, time.Now())
}

func constructEventAt(payload []byte, sigHeader, secret string, now time.Time) (Event, error) {
	event := Event{}

	if sigHeader == "" {
		return event, ErrMissingSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return event, err
	}

	if now.Sub(timestamp) > DefaultTolerance {
		return event, ErrSignatureMismatch
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp.Unix(), 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	matched := false
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			matched = true
			break
		}
	}
	if !matched {
		return event, ErrSignatureMismatch
	}

	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, ErrMalformedPayload
	}
	if event.ID == "" || event.Type == "" {
		return Event{}, ErrMalformedPayload
	}

	return event, nil
}

// parseSignatureHeader extracts timestamp and v1 signature candidates
func parseSignatureHeader(header string) (time.Time, [][]byte, error) {
	var (
		timestamp  time.Time
		signatures [][]byte
	)

	for _, item := range strings.Split(header, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			return timestamp, nil, ErrSignatureMismatch
		}

		switch parts[0] {
		case "t":
			ts, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return timestamp, nil, ErrSignatureMismatch
			}
			timestamp = time.Unix(ts, 0)
		case "v1":
			sig, err := hex.DecodeString(parts[1])
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		default:
			// ignore unknown schemes, e.g. v0
		}
	}

	if timestamp.IsZero() || len(signatures) == 0 {
		return timestamp, nil, ErrSignatureMismatch
	}

	return timestamp, signatures, nil
}
