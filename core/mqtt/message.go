package mqtt

import "fmt"

// AllocationMessage is the retained payload published for one pharmacy.
type AllocationMessage struct {
	MessageID  string `json:"message_id"`
	RunID      string `json:"run_id"`
	PharmacyID string `json:"pharmacy_id"`
	Name       string `json:"name"`
	Index      int    `json:"index"`
	Load       int    `json:"load"`
	Timestamp  int64  `json:"timestamp"`
}

// AllocationTopic returns the topic of a pharmacy under prefix.
func AllocationTopic(prefix, pharmacyID string) string {
	if prefix == "" {
		return fmt.Sprintf("pharmacy/%s/allocation", pharmacyID)
	}
	return fmt.Sprintf("%s/pharmacy/%s/allocation", prefix, pharmacyID)
}
