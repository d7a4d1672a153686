// Package pcap turns captured network packets into feature vectors that
// trained classifiers can score.
package pcap

import (
	"context"
	"errors"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// Source reads packets from a capture file or a live interface and emits
// one feature vector per packet.
type Source struct {
	handle    *pcap.Handle
	extractor *Extractor
	live      bool
}

// Option configures a Source.
type Option func(*config)

type config struct {
	filter  string
	snaplen int32
	promisc bool
	timeout time.Duration
}

// WithFilter applies a BPF filter expression to the capture.
func WithFilter(bpf string) Option {
	return func(c *config) {
		c.filter = bpf
	}
}

// WithSnaplen sets the live-capture snapshot length.
func WithSnaplen(n int32) Option {
	return func(c *config) {
		c.snaplen = n
	}
}

// WithPromiscuous enables promiscuous mode for live capture.
func WithPromiscuous(on bool) Option {
	return func(c *config) {
		c.promisc = on
	}
}

// OpenFile creates a Source over a capture file.
func OpenFile(filename string, opts ...Option) (*Source, error) {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}

	handle, err := pcap.OpenOffline(filename)
	if err != nil {
		return nil, err
	}
	if err := applyFilter(handle, cfg.filter); err != nil {
		return nil, err
	}

	return &Source{handle: handle, extractor: NewExtractor()}, nil
}

// OpenLive creates a Source over a network interface.
func OpenLive(iface string, opts ...Option) (*Source, error) {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}

	handle, err := pcap.OpenLive(iface, cfg.snaplen, cfg.promisc, cfg.timeout)
	if err != nil {
		return nil, err
	}
	if err := applyFilter(handle, cfg.filter); err != nil {
		return nil, err
	}

	return &Source{handle: handle, extractor: NewExtractor(), live: true}, nil
}

func defaults() config {
	return config{
		snaplen: 65535,
		timeout: pcap.BlockForever,
	}
}

func applyFilter(handle *pcap.Handle, filter string) error {
	if filter == "" {
		return nil
	}
	if err := handle.SetBPFFilter(filter); err != nil {
		handle.Close()
		return err
	}
	return nil
}

// Read drains the capture and returns all feature vectors. Only useful
// for files; a live source never reaches EOF.
func (s *Source) Read() ([][]float64, error) {
	if s.handle == nil {
		return nil, errors.New("pcap: source not initialized")
	}

	var data [][]float64
	packets := gopacket.NewPacketSource(s.handle, s.handle.LinkType())
	for packet := range packets.Packets() {
		if features := s.extractor.Extract(packet); features != nil {
			data = append(data, features)
		}
	}
	return data, nil
}

// Stream returns a channel of feature vectors until the capture ends or
// the context is cancelled.
func (s *Source) Stream(ctx context.Context) (<-chan []float64, error) {
	if s.handle == nil {
		return nil, errors.New("pcap: source not initialized")
	}

	out := make(chan []float64, 1000)
	packets := gopacket.NewPacketSource(s.handle, s.handle.LinkType())

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case packet, ok := <-packets.Packets():
				if !ok {
					return
				}
				features := s.extractor.Extract(packet)
				if features == nil {
					continue
				}
				select {
				case out <- features:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close releases the capture handle.
func (s *Source) Close() error {
	if s.handle != nil {
		s.handle.Close()
	}
	return nil
}

// Extractor converts packets into fixed-width numeric feature vectors
// matching the column layout of the training datasets.
type Extractor struct {
	lastSeen time.Time
}

// NewExtractor creates a packet feature extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// FeatureNames returns the column names of extracted vectors, in order.
func FeatureNames() []string {
	return []string{
		"packet_size",
		"inter_arrival_time",
		"protocol",
		"src_port",
		"dst_port",
		"tcp_flags",
		"ip_ttl",
		"payload_size",
	}
}

// Extract converts a packet to a feature vector. The inter-arrival time
// is measured against the previous packet seen by this extractor.
func (e *Extractor) Extract(packet gopacket.Packet) []float64 {
	features := make([]float64, 8)
	features[0] = float64(len(packet.Data()))
	features[1] = e.interArrival(packet)

	e.transportFeatures(packet, features)

	if ipLayer := packet.Layer(layers.LayerTypeIPv4); ipLayer != nil {
		features[6] = float64(ipLayer.(*layers.IPv4).TTL)
	}
	if appLayer := packet.ApplicationLayer(); appLayer != nil {
		features[7] = float64(len(appLayer.Payload()))
	}

	return features
}

func (e *Extractor) interArrival(packet gopacket.Packet) float64 {
	meta := packet.Metadata()
	if meta == nil || meta.Timestamp.IsZero() {
		return 0
	}
	var gap float64
	if !e.lastSeen.IsZero() {
		gap = meta.Timestamp.Sub(e.lastSeen).Seconds()
	}
	e.lastSeen = meta.Timestamp
	return gap
}

func (e *Extractor) transportFeatures(packet gopacket.Packet, features []float64) {
	if tcpLayer := packet.Layer(layers.LayerTypeTCP); tcpLayer != nil {
		tcp := tcpLayer.(*layers.TCP)
		features[2] = 6
		features[3] = float64(tcp.SrcPort)
		features[4] = float64(tcp.DstPort)
		features[5] = tcpFlagBits(tcp)
		return
	}
	if udpLayer := packet.Layer(layers.LayerTypeUDP); udpLayer != nil {
		udp := udpLayer.(*layers.UDP)
		features[2] = 17
		features[3] = float64(udp.SrcPort)
		features[4] = float64(udp.DstPort)
		return
	}
	if packet.Layer(layers.LayerTypeICMPv4) != nil {
		features[2] = 1
	}
}

// tcpFlagBits packs the TCP flags into a small bitmask feature.
func tcpFlagBits(tcp *layers.TCP) float64 {
	var bits int
	if tcp.SYN {
		bits |= 1
	}
	if tcp.ACK {
		bits |= 2
	}
	if tcp.FIN {
		bits |= 4
	}
	if tcp.RST {
		bits |= 8
	}
	if tcp.PSH {
		bits |= 16
	}
	if tcp.URG {
		bits |= 32
	}
	return float64(bits)
}
