package solr

import (
	"github.com/pkg/errors"
)

const (
	activeState string = "active"
)

func findLeader(id string, cs *Collection) (Replica, error) {
	shard, err := findShard(id, cs)
	if err != nil {
		return Replica{}, err
	}
	for _, replica := range shard.Replicas {
		if replica.Leader == "true" && replica.State == activeState {
			return replica, nil
		}
	}
	return Replica{}, ErrNoLeader
}

func findShard(id string, cs *Collection) (Shard, error) {
	composite, err := NewCompositeKey(id)
	if err != nil {
		return Shard{}, err
	}
	hash := Hash(composite)
	for name, shard := range cs.Shards {
		if shard.State != "" && shard.State != activeState {
			continue
		}
		hashRange, err := ConvertToHashRange(shard.Range)
		if err != nil {
			return Shard{}, errors.Wrapf(err, "shard %s", name)
		}
		if hash >= hashRange.Low && hash <= hashRange.High {
			return shard, nil
		}
	}
	return Shard{}, errors.Wrapf(ErrNoLeader, "no shard covers hash %d of %s", hash, id)
}
