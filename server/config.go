package main

import "time"

// Config is populated from command line flags and environment variables.
type Config struct {
	Listen            string        `flag:"listen" env:"LISTEN" default:":8091" description:"Address to serve HTTP on"`
	RTMPBase          string        `flag:"rtmp-base" env:"RTMP_BASE_URL" default:"rtmp://127.0.0.1:1935/live" description:"Base RTMP URL frames are captured from; stream id is appended"`
	FFmpegPath        string        `flag:"ffmpeg-path" env:"FFMPEG_PATH" default:"" description:"Path to the ffmpeg binary (default: search PATH)"`
	CaptureInterval   time.Duration `flag:"capture-interval" env:"CAPTURE_INTERVAL" default:"1s" description:"Delay between frame grabs per captured stream"`
	CaptureTimeout    time.Duration `flag:"capture-timeout" env:"CAPTURE_TIMEOUT" default:"5s" description:"Timeout for a single frame grab"`
	ViewerInterval    time.Duration `flag:"viewer-interval" env:"VIEWER_INTERVAL" default:"100ms" description:"Poll interval of MJPEG and WebSocket viewers"`
	LivenessThreshold time.Duration `flag:"liveness-threshold" env:"LIVENESS_THRESHOLD" default:"10s" description:"Streams without a frame for this long report offline"`
	LogLevel          string        `flag:"log-level" env:"LOG_LEVEL" default:"info" description:"Log level (debug, info, warn, error, fatal)"`
}
