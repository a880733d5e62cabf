package ffprobe

import "testing"

func TestFrameRateAndCount(t *testing.T) {
	result, err := Parse([]byte(`{
		"streams": [
			{"codec_type": "audio"},
			{"codec_type": "video", "r_frame_rate": "30000/1001", "avg_frame_rate": "30/1", "nb_frames": "1800"}
		],
		"format": {"duration": "60.06"}
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if fps := result.FrameRate(); fps < 29.96 || fps > 29.98 {
		t.Fatalf("unexpected fps %v", fps)
	}
	if n := result.FrameCount(); n != 1800 {
		t.Fatalf("unexpected frame count %d", n)
	}
}

func TestFrameRateFallbacks(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", RFrameRate: "0/0", AvgFrameRate: "25/1"}},
		Format:  Format{Duration: "4"},
	}
	if fps := result.FrameRate(); fps != 25 {
		t.Fatalf("expected avg_frame_rate fallback, got %v", fps)
	}
	if n := result.FrameCount(); n != 100 {
		t.Fatalf("expected duration*fps fallback, got %d", n)
	}
}

func TestNoVideoStream(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio"}}, Format: Format{Duration: "bad"}}
	if result.FrameRate() != 0 || result.FrameCount() != 0 || result.DurationSeconds() != 0 {
		t.Fatal("expected zero values without a video stream")
	}
}
