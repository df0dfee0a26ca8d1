package solr

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spaolacci/murmur3"
)

const defaultShardBits = 16

// CompositeKey is a parsed compositeId: "shard!doc" or "shard/bits!doc".
type CompositeKey struct {
	ShardKey string
	DocID    string
	Bits     int
}

type HashRange struct {
	Low  int32
	High int32
}

func NewCompositeKey(id string) (CompositeKey, error) {
	keys := strings.Split(id, "!")
	switch len(keys) {
	case 1:
		return CompositeKey{DocID: id}, nil
	case 2:
		key := CompositeKey{ShardKey: keys[0], DocID: keys[1], Bits: defaultShardBits}
		if slash := strings.LastIndex(key.ShardKey, "/"); slash >= 0 {
			bits, err := strconv.Atoi(key.ShardKey[slash+1:])
			if err != nil || bits < 0 || bits > 32 {
				return CompositeKey{}, errors.Errorf("invalid shard bits in composite key %s", id)
			}
			key.ShardKey = key.ShardKey[:slash]
			key.Bits = bits
		}
		return key, nil
	default:
		return CompositeKey{}, errors.Errorf("cant deal with composite keys %s", id)
	}
}

// Hash follows the compositeId router: the top Bits come from the shard key,
// the rest from the document id.
func Hash(key CompositeKey) int32 {
	if key.ShardKey == "" && key.Bits == 0 {
		return int32(murmur3.Sum32([]byte(key.DocID)))
	}
	shardMask := uint32(0)
	if key.Bits > 0 {
		shardMask = ^uint32(0) << uint(32-key.Bits)
	}
	shardHash := murmur3.Sum32([]byte(key.ShardKey))
	docHash := murmur3.Sum32([]byte(key.DocID))
	return int32((shardHash & shardMask) | (docHash &^ shardMask))
}

func ConvertToHashRange(hashRange string) (HashRange, error) {
	ranges := strings.Split(hashRange, "-")
	var rangeReturn HashRange
	if len(ranges) != 2 {
		return rangeReturn, errors.Errorf("invalid hash range %q", hashRange)
	}
	low, err := strconv.ParseUint(ranges[0], 16, 32)
	if err != nil {
		return rangeReturn, errors.Wrapf(err, "invalid hash range %q", hashRange)
	}
	high, err := strconv.ParseUint(ranges[1], 16, 32)
	if err != nil {
		return rangeReturn, errors.Wrapf(err, "invalid hash range %q", hashRange)
	}
	rangeReturn.Low = int32(uint32(low))
	rangeReturn.High = int32(uint32(high))
	return rangeReturn, nil
}
