package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/kvshim/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format:
//
//	[0]  message type
//	[1]  flags (which of the fields below follow)
//	key   uint32 length + bytes
//	value uint32 length + bytes (present but empty is distinct from missing)
//	ok    1 byte
//	err   uint32 length + bytes
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey   byte = 1 << 0
	hasValue byte = 1 << 1
	hasOk    byte = 1 << 2
	hasErr   byte = 1 << 3
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, 2, b.sizeBytes(msg))
	result[0] = byte(msg.MsgType)

	var flags byte
	if msg.Key != "" {
		flags |= hasKey
		result = appendField(result, []byte(msg.Key))
	}
	if msg.Value != nil {
		flags |= hasValue
		result = appendField(result, msg.Value)
	}
	if msg.Ok {
		flags |= hasOk
		result = append(result, 1)
	}
	if msg.Err != "" {
		flags |= hasErr
		result = appendField(result, []byte(msg.Err))
	}

	// flags are known only after all fields are written
	result[1] = flags
	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	msg.MsgType = common.MessageType(data[0])
	flags := data[1]
	r := fieldReader{data: data, pos: 2}

	msg.Key = ""
	if flags&hasKey != 0 {
		key, err := r.next("key")
		if err != nil {
			return err
		}
		msg.Key = string(key)
	}

	msg.Value = nil
	if flags&hasValue != 0 {
		value, err := r.next("value")
		if err != nil {
			return err
		}
		// never alias the input buffer, transports reuse it
		msg.Value = append(make([]byte, 0, len(value)), value...)
	}

	msg.Ok = false
	if flags&hasOk != 0 {
		if r.pos+1 > len(data) {
			return fmt.Errorf("data too short for Ok flag")
		}
		msg.Ok = data[r.pos] != 0
		r.pos++
	}

	msg.Err = ""
	if flags&hasErr != 0 {
		errMsg, err := r.next("error")
		if err != nil {
			return err
		}
		msg.Err = string(errMsg)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Ok {
		size += 1
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}

	return size
}

// appendField writes a length prefixed byte field
func appendField(dst, field []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(field)))
	return append(dst, field...)
}

// fieldReader reads length prefixed fields from a message
type fieldReader struct {
	data []byte
	pos  int
}

// next returns the next field. The slice aliases the input.
func (r *fieldReader) next(name string) ([]byte, error) {
	if r.pos+4 > len(r.data) {
		return nil, fmt.Errorf("data too short for %s length", name)
	}
	n := int(binary.BigEndian.Uint32(r.data[r.pos : r.pos+4]))
	r.pos += 4

	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("data too short for %s data", name)
	}
	field := r.data[r.pos : r.pos+n]
	r.pos += n
	return field, nil
}
