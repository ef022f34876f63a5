package oggvorbis

import (
	"github.com/xaionaro-go/audiodelta/pkg/audio/registry"
)

const (
	Priority = 100
)

func init() {
	registry.RegisterSourceFactory(Priority, SourceOggVorbisFactory{})
}
