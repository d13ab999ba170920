package control

import (
	"fmt"
	"sort"
	"time"

	"github.com/influxdata/line-protocol/v2/lineprotocol"
)

// ChannelRate is one channel's instantaneous event rate, computed by
// the caller over the interval since the previous status publication.
type ChannelRate struct {
	Channel uint8
	Rate    float64 // events/second
}

// EncodeRatesLineProtocol renders per-channel acquisition rates as
// InfluxDB line-protocol points, one per channel, all tagged with
// module and timestamped at t. This is a status-plane enrichment
// alongside the mandatory JSON Status, not a replacement for it: a
// stage that wants drop-in ingestion into an external rate monitor
// can publish this on a second topic.
func EncodeRatesLineProtocol(module string, t time.Time, rates []ChannelRate) ([]byte, error) {
	sorted := make([]ChannelRate, len(rates))
	copy(sorted, rates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Channel < sorted[j].Channel })

	var enc lineprotocol.Encoder
	enc.SetPrecision(lineprotocol.Millisecond)

	for _, r := range sorted {
		enc.StartLine("acquisition_rate")
		// The encoder requires tag keys in lexical order.
		enc.AddTag("channel", fmt.Sprintf("%d", r.Channel))
		enc.AddTag("module", module)
		enc.AddField("rate", lineprotocol.MustNewValue(r.Rate))
		enc.EndLine(t)
	}

	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("control: encode line protocol: %w", err)
	}
	return enc.Bytes(), nil
}
