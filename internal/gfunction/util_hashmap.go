/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"fmt"

	"foxvm/internal/excnames"
	"foxvm/internal/object"
)

// Load_Util_HashMap registers java/util/HashMap natives, following
// artipop-jacobin/src/gfunction/javaUtilHashMap.go's hashMapHash,
// adapted to look up the object's "value" field by name through
// object.Object.FieldByName instead of jacobin's FieldTable map.
func Load_Util_HashMap() {
	MethodSignatures["java/util/HashMap.hash(Ljava/lang/Object;)I"] = GMeth{ParamSlots: 1, GFunction: hashMapHash}
}

// "java/util/HashMap.hash(Ljava/lang/Object;)I" reuses
// java/lang/String.hashCode's algorithm for String keys (the common
// case) and falls back to a primitive-value hash for boxed numerics,
// rather than jacobin's MD5-of-bytes approach — this runtime's String
// is backed by a Go string (see lang_string.go), not a byte array, so
// there is no byte buffer to feed an MD5 digest in the first place.
func hashMapHash(params []interface{}) interface{} {
	key, ok := params[0].(*object.Object)
	if !ok || key == nil {
		return int32(0)
	}
	if _, ok := stringValue(key); ok {
		return stringHashCode([]interface{}{key})
	}
	f, ok := key.FieldByName("value")
	if !ok {
		return getGErrBlk(excnames.IllegalArgumentException, fmt.Sprintf("unrecognized HashMap key type: %T", key))
	}
	switch v := f.Fvalue.(type) {
	case int32:
		return v
	case int64:
		return int32(v ^ (v >> 32))
	case float32:
		return int32(v)
	case float64:
		return int32(v)
	case bool:
		if v {
			return int32(1231)
		}
		return int32(1237)
	default:
		return getGErrBlk(excnames.IllegalArgumentException, fmt.Sprintf("unrecognized HashMap key field type: %T", v))
	}
}
