package evaluation

// UtteranceRecord is one evaluated audio sample as loaded from the
// predictions table.
type UtteranceRecord struct {
	Row           int // 1-based data row in the source table
	ReferenceText string
	PredictedText string
	SpeakerID     string
	IsCommon      bool
}

// UtteranceScore is the scored form of an UtteranceRecord.
type UtteranceScore struct {
	SpeakerID string  `json:"speaker_id" yaml:"speaker_id"`
	IsCommon  bool    `json:"is_common" yaml:"is_common"`
	WER       float64 `json:"wer" yaml:"wer"`
	CER       float64 `json:"cer" yaml:"cer"`
}

// Dimension selects how scores are partitioned.
type Dimension string

const (
	DimensionOverall  Dimension = "overall"
	DimensionSpeaker  Dimension = "speaker"
	DimensionCategory Dimension = "category"
)

// AllDimensions lists every dimension in report order.
var AllDimensions = []Dimension{DimensionOverall, DimensionSpeaker, DimensionCategory}

// Category group values.
const (
	GroupOverall  = "overall"
	GroupCommon   = "common"
	GroupPersonal = "personal"
)

// ParseDimension accepts the names used on the command line and in config.
func ParseDimension(s string) (Dimension, bool) {
	switch Dimension(s) {
	case DimensionOverall, DimensionSpeaker, DimensionCategory:
		return Dimension(s), true
	}
	return "", false
}

// GroupKey identifies one aggregation group.
type GroupKey struct {
	Dimension Dimension `json:"dimension" yaml:"dimension"`
	Value     string    `json:"value" yaml:"value"`
}

// AggregateStat is the macro-averaged statistic of one group.
type AggregateStat struct {
	Group   GroupKey `json:"group" yaml:"group"`
	Count   int      `json:"count" yaml:"count"`
	MeanWER float64  `json:"mean_wer" yaml:"mean_wer"`
	MeanCER float64  `json:"mean_cer" yaml:"mean_cer"`
}

func categoryOf(isCommon bool) string {
	if isCommon {
		return GroupCommon
	}
	return GroupPersonal
}
