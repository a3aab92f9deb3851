package msgs

import "encoding/json"

// SensorInfo describes a lidar publishing scans.
type SensorInfo struct {
	ID          string            `json:"id"`
	Model       string            `json:"model,omitempty"`
	Description string            `json:"description,omitempty"`
	Device      string            `json:"device,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Name returns the topic path of the sensor.
func (i SensorInfo) Name() string {
	return "lidar/" + i.ID
}

// ScanTopic is where scans are published.
func (i SensorInfo) ScanTopic() string {
	return i.Name() + "/scan"
}

// MetaTopic is where retained metadata is published.
func (i SensorInfo) MetaTopic() string {
	return i.Name() + "/meta"
}

// EncodeMeta encodes SensorInfo as JSON.
func EncodeMeta(info SensorInfo) ([]byte, error) {
	return json.Marshal(&info)
}

// DecodeMeta decodes SensorInfo.
func DecodeMeta(b []byte) (info SensorInfo, err error) {
	err = json.Unmarshal(b, &info)
	return
}
