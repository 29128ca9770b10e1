package jam

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strconv"
)

// Marshal encodes v. Fixed-width integers are little-endian, arrays are
// written element by element with no prefix, slices carry a general natural
// length prefix, structs are the concatenation of their exported fields.
func Marshal(v interface{}) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	es := byteWriter{
		Writer: buffer,
	}
	if err := es.marshal(reflect.ValueOf(v)); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

type byteWriter struct {
	io.Writer
}

func (bw *byteWriter) marshal(val reflect.Value) error {
	switch val.Kind() {
	case reflect.Bool:
		return bw.encodeBool(val.Bool())
	case reflect.Uint:
		return bw.encodeCompact(val.Uint())
	case reflect.Int:
		if val.Int() < 0 {
			return fmt.Errorf(ErrUnsupportedType, "negative int")
		}
		return bw.encodeCompact(uint64(val.Int()))
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		l, err := IntLength(val.Kind())
		if err != nil {
			return err
		}
		return bw.encodeFixedWidth(val, l)
	case reflect.Ptr:
		if err := bw.writePointerMarker(val.IsNil()); err != nil {
			return err
		}
		if val.IsNil() {
			return nil
		}
		return bw.marshal(val.Elem())
	case reflect.Struct:
		return bw.encodeStruct(val)
	case reflect.Array:
		return bw.encodeArray(val)
	case reflect.Slice:
		return bw.encodeSlice(val)
	default:
		return fmt.Errorf(ErrUnsupportedType, val.Type())
	}
}

func (bw *byteWriter) encodeSlice(v reflect.Value) error {
	if err := bw.encodeLength(v.Len()); err != nil {
		return err
	}
	if v.Type().Elem().Kind() == reflect.Uint8 {
		_, err := bw.Write(v.Bytes())
		return err
	}
	for i := 0; i < v.Len(); i++ {
		if err := bw.marshal(v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (bw *byteWriter) encodeArray(v reflect.Value) error {
	if v.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, v.Len())
		reflect.Copy(reflect.ValueOf(b), v)
		_, err := bw.Write(b)
		return err
	}
	for i := 0; i < v.Len(); i++ {
		if err := bw.marshal(v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (bw *byteWriter) encodeBool(l bool) error {
	var err error
	switch l {
	case true:
		_, err = bw.Write([]byte{0x01})
	case false:
		_, err = bw.Write([]byte{0x00})
	}

	return err
}

func (bw *byteWriter) encodeFixedWidth(val reflect.Value, l uint) error {
	if val.Kind() == reflect.Ptr {
		if err := bw.writePointerMarker(val.IsNil()); err != nil {
			return err
		}
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}

	var x uint64
	switch val.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		x = val.Uint()
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		x = uint64(val.Int())
	default:
		return fmt.Errorf(ErrUnsupportedType, val.Type())
	}
	_, err := bw.Write(serializeTrivialNatural(x, l))
	return err
}

func (bw *byteWriter) writePointerMarker(isNil bool) error {
	marker := byte(0x00)
	if !isNil {
		marker = byte(0x01)
	}
	_, err := bw.Write([]byte{marker})
	return err
}

func (bw *byteWriter) encodeStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// Skip unexported fields
		if !fieldType.IsExported() {
			continue
		}
		if tag, ok := fieldType.Tag.Lookup("jam"); ok {
			if tag == "-" {
				continue
			}
			if length, found := parseTag(tag)["length"]; found {
				size, err := strconv.ParseUint(length, 10, 64)
				if err != nil {
					return fmt.Errorf(ErrInvalidLengthValue, fieldType.Name, err)
				}
				if err := bw.encodeFixedWidth(field, uint(size)); err != nil {
					return fmt.Errorf(ErrEncodingStructField, fieldType.Name, err)
				}
				continue
			}
		}

		if err := bw.marshal(field); err != nil {
			return fmt.Errorf(ErrEncodingStructField, fieldType.Name, err)
		}
	}

	return nil
}

func (bw *byteWriter) encodeLength(l int) error {
	return bw.encodeCompact(uint64(l))
}

// encodeCompact encodes an uint64 using the general compact natural number
// encoding, a variable-length byte sequence (1-9 bytes).
func (bw *byteWriter) encodeCompact(i uint64) error {
	_, err := bw.Write(serializeUint64(i))
	return err
}
