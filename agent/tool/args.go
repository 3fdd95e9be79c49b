package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// serviceID accepts 7, 7.0 and "7"; models are not consistent about it.
type serviceID int64

func (s *serviceID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f != math.Trunc(f) {
		return fmt.Errorf("service_id must be an integer, got %s", string(data))
	}
	*s = serviceID(f)
	return nil
}

func requireServiceID(id serviceID) error {
	if id <= 0 {
		return fmt.Errorf("%w: service_id is required", errInvalidArgs)
	}
	return nil
}
