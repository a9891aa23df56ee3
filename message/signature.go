package message

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Sign returns the hex encoded HMAC-SHA256 of the five signed fields keyed by salt.
// The fields are encoded as a JSON array so that no two field tuples share an input.
func Sign(typ, id, source, event string, payload []byte, salt string) string {
	fields, _ := json.Marshal([]string{typ, id, source, event, string(payload)})

	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write(fields)
	return hex.EncodeToString(mac.Sum(nil))
}

func verify(signature, typ, id, source, event string, payload []byte, salt string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(Sign(typ, id, source, event, payload, salt))
	return hmac.Equal(got, want)
}
