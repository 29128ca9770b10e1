package jam

import (
	"fmt"
	"reflect"
	"strings"
)

// IntLength returns the fixed encoding width of an integer kind.
func IntLength(kind reflect.Kind) (uint, error) {
	switch kind {
	case reflect.Uint8, reflect.Int8:
		return 1, nil
	case reflect.Uint16, reflect.Int16:
		return 2, nil
	case reflect.Uint32, reflect.Int32:
		return 4, nil
	case reflect.Uint64, reflect.Int64:
		return 8, nil
	default:
		return 0, fmt.Errorf(ErrUnsupportedType, kind)
	}
}

func parseTag(tag string) map[string]string {
	result := make(map[string]string)
	pairs := strings.Split(tag, ",")
	for _, pair := range pairs {
		kv := strings.Split(pair, "=")
		if len(kv) == 2 {
			result[kv[0]] = kv[1]
		}
	}
	return result
}
