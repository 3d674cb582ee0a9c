package interpreter

import (
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/saker-ai/live-interpreter/internal/protocol"
)

type inboundHandler struct {
	name   string
	handle func(protocol.InboundMessage)
}

// HandleMessage parses one inbound frame and runs each field handler in
// order: translation, audio, message. A handler never prevents the next one
// from running. Only a parse failure is returned.
func (c *Client) HandleMessage(raw []byte) error {
	msg, err := protocol.ParseInbound(raw)
	if err != nil {
		return err
	}

	handlers := []inboundHandler{
		{name: "translation", handle: c.onTranslation},
		{name: "audio", handle: c.onAudio},
		{name: "message", handle: c.onMessage},
	}
	for _, h := range handlers {
		c.runHandler(h, msg)
	}
	return nil
}

func (c *Client) runHandler(h inboundHandler, msg protocol.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("interpreter field handler panicked",
				zap.String("field", h.name),
				zap.Any("panic", r),
			)
		}
	}()
	h.handle(msg)
}

func (c *Client) onTranslation(msg protocol.InboundMessage) {
	if !msg.HasTranslation() {
		return
	}
	c.sink.AppendLine("Translation: " + *msg.Translation)
}

func (c *Client) onMessage(msg protocol.InboundMessage) {
	if !msg.HasMessage() {
		return
	}
	c.sink.AppendLine("Message: " + *msg.Message)
}

// onAudio decodes the clip and hands it to the player on a new goroutine,
// so a long clip never delays the next frame and clips may overlap.
func (c *Client) onAudio(msg protocol.InboundMessage) {
	if !msg.HasAudio() {
		return
	}
	clip, err := decodeBase64(*msg.Audio)
	if err != nil {
		c.logger.Warn("interpreter audio dropped", zap.Error(err))
		return
	}
	if c.player == nil {
		c.logger.Debug("interpreter audio ignored: no player", zap.Int("bytes", len(clip)))
		return
	}

	c.playback.Add(1)
	go func() {
		defer c.playback.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("interpreter audio player panicked", zap.Any("panic", r))
			}
		}()
		if err := c.player.Play(c.playCtx, clip); err != nil {
			c.logger.Warn("interpreter audio playback failed",
				zap.Int("bytes", len(clip)),
				zap.Error(fmt.Errorf("%w: %v", ErrAudioDecode, err)),
			)
			return
		}
		c.logger.Debug("interpreter audio played", zap.Int("bytes", len(clip)))
	}()
}

// decodeBase64 accepts padded and unpadded standard base64, and a data URL
// prefix such as "data:audio/wav;base64,".
func decodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx >= 0 {
			payload = payload[idx+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(payload)
		if rawErr != nil {
			return nil, fmt.Errorf("%w: base64: %v", ErrAudioDecode, err)
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty clip", ErrAudioDecode)
	}
	return data, nil
}
