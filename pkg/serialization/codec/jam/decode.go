package jam

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/bits"
	"reflect"
	"strconv"
)

// Unmarshal decodes data into dst, which must be a non-nil pointer. The whole
// input must be consumed: leftover bytes are reported as ErrTrailingBytes and
// short input as io.ErrUnexpectedEOF.
func Unmarshal(data []byte, dst interface{}) error {
	dstv := reflect.ValueOf(dst)
	if dstv.Kind() != reflect.Ptr || dstv.IsNil() {
		return fmt.Errorf(ErrUnsupportedType, dst)
	}

	buf := bytes.NewReader(data)
	ds := byteReader{Reader: buf}
	if err := ds.unmarshal(dstv.Elem()); err != nil {
		return err
	}
	if buf.Len() != 0 {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, buf.Len())
	}
	return nil
}

type byteReader struct {
	*bytes.Reader
}

func (br *byteReader) unmarshal(value reflect.Value) error {
	switch value.Kind() {
	case reflect.Bool:
		return br.decodeBool(value)
	case reflect.Uint, reflect.Int:
		return br.decodeUint(value)
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		l, err := IntLength(value.Kind())
		if err != nil {
			return err
		}
		return br.decodeFixedWidth(value, l)
	case reflect.Ptr:
		return br.decodePointer(value)
	case reflect.Struct:
		return br.decodeStruct(value)
	case reflect.Array:
		return br.decodeArray(value)
	case reflect.Slice:
		return br.decodeSlice(value)
	default:
		return fmt.Errorf(ErrUnsupportedType, value.Type())
	}
}

func (br *byteReader) readFull(n uint) ([]byte, error) {
	if n > uint(br.Len()) {
		return nil, fmt.Errorf(ErrReadingBytes, io.ErrUnexpectedEOF)
	}
	b := make([]byte, n)
	if n == 0 {
		return b, nil
	}
	if _, err := io.ReadFull(br.Reader, b); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf(ErrReadingBytes, err)
	}
	return b, nil
}

func (br *byteReader) ReadOctet() (byte, error) {
	b, err := br.readFull(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (br *byteReader) decodePointer(value reflect.Value) error {
	isNil, err := br.readPointerMarker()
	if err != nil {
		return err
	}

	if isNil {
		value.Set(reflect.Zero(value.Type()))
		return nil
	}

	if value.IsNil() {
		value.Set(reflect.New(value.Type().Elem()))
	}

	return br.unmarshal(value.Elem())
}

func (br *byteReader) decodeSlice(value reflect.Value) error {
	l, err := br.decodeLength()
	if err != nil {
		return err
	}
	// Empty sequences decode to nil so that decode(encode(v)) == v for nil slices
	if l == 0 {
		value.Set(reflect.Zero(value.Type()))
		return nil
	}
	// Every element occupies at least one byte, so a length beyond the
	// remaining input can never be satisfied.
	if l > uint(br.Len()) {
		return fmt.Errorf(ErrReadingBytes, io.ErrUnexpectedEOF)
	}
	if value.Type().Elem().Kind() == reflect.Uint8 {
		if l > math.MaxUint32 {
			return ErrExceedingByteArrayLimit
		}
		b, err := br.readFull(l)
		if err != nil {
			return err
		}
		value.Set(reflect.ValueOf(b).Convert(value.Type()))
		return nil
	}

	slice := reflect.MakeSlice(value.Type(), 0, 0)
	for i := uint(0); i < l; i++ {
		elem := reflect.New(value.Type().Elem()).Elem()
		if err := br.unmarshal(elem); err != nil {
			return err
		}
		slice = reflect.Append(slice, elem)
	}
	value.Set(slice)

	return nil
}

func (br *byteReader) decodeArray(value reflect.Value) error {
	if value.Type().Elem().Kind() == reflect.Uint8 {
		b, err := br.readFull(uint(value.Len()))
		if err != nil {
			return err
		}
		reflect.Copy(value, reflect.ValueOf(b))
		return nil
	}
	for i := 0; i < value.Len(); i++ {
		if err := br.unmarshal(value.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (br *byteReader) decodeStruct(value reflect.Value) error {
	t := value.Type()

	for i := 0; i < value.NumField(); i++ {
		field := value.Field(i)
		fieldType := t.Field(i)

		// Skip unexported fields
		if !field.CanSet() {
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
				if err := br.decodeFixedWidth(field, uint(size)); err != nil {
					return fmt.Errorf(ErrDecodingStructField, fieldType.Name, err)
				}
				continue
			}
		}

		if err := br.unmarshal(field); err != nil {
			return fmt.Errorf(ErrDecodingStructField, fieldType.Name, err)
		}
	}

	return nil
}

func (br *byteReader) decodeBool(value reflect.Value) error {
	rb, err := br.ReadOctet()
	if err != nil {
		return err
	}

	switch rb {
	case 0x00:
		value.SetBool(false)
	case 0x01:
		value.SetBool(true)
	default:
		return ErrDecodingBool
	}

	return nil
}

func (br *byteReader) decodeUint(value reflect.Value) error {
	// The first byte determines how many bytes are used in the encoding
	prefix, err := br.ReadOctet()
	if err != nil {
		return fmt.Errorf(ErrReadingByte, err)
	}

	l := uint8(bits.LeadingZeros8(^prefix))

	rest, err := br.readFull(uint(l))
	if err != nil {
		return err
	}
	serialized := append([]byte{prefix}, rest...)

	var v uint64
	if err := deserializeUint64WithLength(serialized, l, &v); err != nil {
		return fmt.Errorf(ErrDecodingUint, err)
	}

	switch value.Kind() {
	case reflect.Int:
		if v > math.MaxInt64 {
			return fmt.Errorf(ErrDecodingUint, ErrExceedingByteArrayLimit)
		}
		value.SetInt(int64(v))
	default:
		value.SetUint(v)
	}

	return nil
}

// decodeLength is helper method which calls decodeUint and casts to uint
func (br *byteReader) decodeLength() (uint, error) {
	var l uint
	if err := br.decodeUint(reflect.ValueOf(&l).Elem()); err != nil {
		return 0, err
	}
	return l, nil
}

// decodeFixedWidth reads length octets as a little-endian integer into dstv.
func (br *byteReader) decodeFixedWidth(dstv reflect.Value, length uint) error {
	if dstv.Kind() == reflect.Ptr {
		isNil, err := br.readPointerMarker()
		if err != nil {
			return err
		}
		if isNil {
			dstv.Set(reflect.Zero(dstv.Type()))
			return nil
		}
		if dstv.IsNil() {
			dstv.Set(reflect.New(dstv.Type().Elem()))
		}
		dstv = dstv.Elem()
	}

	buf, err := br.readFull(length)
	if err != nil {
		return err
	}
	u := deserializeTrivialNatural(buf)

	switch dstv.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		dstv.SetUint(u)
	case reflect.Int8:
		dstv.SetInt(int64(int8(u)))
	case reflect.Int16:
		dstv.SetInt(int64(int16(u)))
	case reflect.Int32:
		dstv.SetInt(int64(int32(u)))
	case reflect.Int64, reflect.Int:
		dstv.SetInt(int64(u))
	default:
		return fmt.Errorf(ErrUnsupportedType, dstv.Type())
	}

	return nil
}

func (br *byteReader) readPointerMarker() (bool, error) {
	marker, err := br.ReadOctet()
	if err != nil {
		return false, err
	}

	switch marker {
	case 0x00:
		return true, nil // Nil pointer
	case 0x01:
		return false, nil // Non-nil pointer
	default:
		return false, ErrInvalidPointer
	}
}
