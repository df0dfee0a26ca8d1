package solr

// Collection is the state.json entry of one collection.
type Collection struct {
	Shards            map[string]Shard `json:"shards"`
	ConfigName        string           `json:"configName"`
	ReplicationFactor interface{}      `json:"replicationFactor"`
	Router            struct {
		Name string `json:"name"`
	} `json:"router"`
}

type Shard struct {
	Range    string             `json:"range"`
	State    string             `json:"state"`
	Replicas map[string]Replica `json:"replicas"`
}

type Replica struct {
	Core     string `json:"core"`
	Leader   string `json:"leader"`
	BaseURL  string `json:"base_url"`
	NodeName string `json:"node_name"`
	State    string `json:"state"`
	Type     string `json:"type"`
}
