package thumbnail

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ytget/video-thumb/internal/model"
)

// gjson paths into ffprobe's -show_format -show_streams output
const (
	metaDurationPath = "format.duration"
	metaWidthPath    = `streams.#(codec_type=="video").width`
	metaHeightPath   = `streams.#(codec_type=="video").height`
	metaCodecPath    = `streams.#(codec_type=="video").codec_name`
)

// ffprobe runs ffprobe from PATH through ffmpeg-go. A deadline on ctx
// becomes the ffprobe timeout; ffmpeg-go kills ffprobe when it expires.
func ffprobe(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var timeout time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return "", context.DeadlineExceeded
		}
	}
	return ffmpeg.ProbeWithTimeout(path, timeout, ffmpeg.KwArgs{})
}

// parseMetadata extracts the video stream summary from ffprobe JSON
func parseMetadata(raw string) (*model.VideoInfo, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("invalid ffprobe output")
	}

	info := &model.VideoInfo{
		Width:  int(gjson.Get(raw, metaWidthPath).Int()),
		Height: int(gjson.Get(raw, metaHeightPath).Int()),
		Codec:  gjson.Get(raw, metaCodecPath).String(),
	}
	if seconds := gjson.Get(raw, metaDurationPath).Float(); seconds > 0 {
		info.Duration = time.Duration(seconds * float64(time.Second))
	}

	if info.Width == 0 && info.Height == 0 {
		return nil, fmt.Errorf("no video stream found")
	}
	return info, nil
}
