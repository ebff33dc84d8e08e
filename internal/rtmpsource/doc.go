// Package rtmpsource implements avplayer.Demuxer over a live RTMP publish,
// accepting one incoming push and demuxing its FLV-wrapped H.264/AAC
// elementary streams directly into avplayer.Packet values.
package rtmpsource
