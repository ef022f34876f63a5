package mp3

import (
	"github.com/xaionaro-go/audiodelta/pkg/audio/registry"
)

const (
	Priority = 100
)

func init() {
	registry.RegisterSourceFactory(Priority, SourceMP3Factory{})
}
