package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies an account in whichever store owns it. The relational store
// hands out integers while the managed provider and Mongo use strings, so ID
// keeps the original kind and never coerces one into the other.
type ID struct {
	str     string
	num     int64
	numeric bool
}

func IntID(n int64) ID { return ID{num: n, numeric: true} }

func StringID(s string) ID { return ID{str: s} }

// IsZero reports whether the ID is absent. Empty strings count as absent; the
// integer 0 is never issued by the store so it does too.
func (id ID) IsZero() bool {
	if id.numeric {
		return id.num == 0
	}
	return id.str == ""
}

func (id ID) IsNumeric() bool { return id.numeric }

// Int64 returns the integer value. For string ids holding only digits the
// parsed value is returned so path parameters can address integer ids.
func (id ID) Int64() (int64, bool) {
	if id.numeric {
		return id.num, true
	}
	n, err := strconv.ParseInt(id.str, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (id ID) String() string {
	if id.numeric {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

// Equal compares kind and value.
func (id ID) Equal(other ID) bool {
	return id.numeric == other.numeric && id.num == other.num && id.str == other.str
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(strconv.FormatInt(id.num, 10)), nil
	}
	return json.Marshal(id.str)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("id: %q is not an integer or string", data)
	}
	*id = IntID(n)
	return nil
}
