package line

import (
	"errors"
	"fmt"
	"log"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/zhouzirui/linebot-relay/internal/model/event"
	"github.com/zhouzirui/linebot-relay/internal/model/reply"
)

// maxReplyMessages is the LINE limit of message objects per reply.
const maxReplyMessages = 5

var ErrNoMessages = errors.New("reply has no messages")

// Replier is the subset of the Messaging API the relay calls.
// *messaging_api.MessagingApiAPI satisfies it.
type Replier interface {
	ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
}

// Client delivers composed replies through the reply API.
type Client struct {
	replier Replier
}

// NewClient creates a Messaging API client for the channel access token.
func NewClient(channelAccessToken string) (*Client, error) {
	bot, err := messaging_api.NewMessagingApiAPI(channelAccessToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging api client: %w", err)
	}
	return NewClientWithReplier(bot), nil
}

// NewClientWithReplier wraps an existing replier.
func NewClientWithReplier(replier Replier) *Client {
	return &Client{replier: replier}
}

// Reply sends msgs, in order, against a one-time reply token.
func (c *Client) Reply(replyToken string, msgs []reply.Message) error {
	encoded := EncodeMessages(msgs)
	if len(encoded) == 0 {
		return ErrNoMessages
	}
	if len(encoded) > maxReplyMessages {
		encoded = encoded[:maxReplyMessages]
	}

	if _, err := c.replier.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   encoded,
	}); err != nil {
		return fmt.Errorf("reply message: %w", err)
	}
	return nil
}

// DecodeEvent converts a webhook event into an inbound event. Events other
// than messages report ok=false.
func DecodeEvent(raw webhook.EventInterface) (event.Inbound, bool) {
	msgEvent, ok := raw.(webhook.MessageEvent)
	if !ok {
		return event.Inbound{}, false
	}

	sender := senderID(msgEvent.Source)
	token := msgEvent.ReplyToken

	switch message := msgEvent.Message.(type) {
	case webhook.TextMessageContent:
		return event.NewText(sender, token, message.Text), true
	case webhook.LocationMessageContent:
		return event.NewLocation(sender, token, message.Latitude, message.Longitude), true
	case webhook.ImageMessageContent:
		return event.NewMedia(sender, token, event.KindImage), true
	case webhook.VideoMessageContent:
		return event.NewMedia(sender, token, event.KindVideo), true
	case webhook.StickerMessageContent:
		return event.NewMedia(sender, token, event.KindSticker), true
	default:
		return event.NewMedia(sender, token, event.KindOther), true
	}
}

func senderID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		if s.UserId != "" {
			return s.UserId
		}
		return s.GroupId
	case webhook.RoomSource:
		if s.UserId != "" {
			return s.UserId
		}
		return s.RoomId
	default:
		return ""
	}
}

// EncodeMessages converts composed replies into Messaging API objects,
// preserving order.
func EncodeMessages(msgs []reply.Message) []messaging_api.MessageInterface {
	out := make([]messaging_api.MessageInterface, 0, len(msgs))
	for _, msg := range msgs {
		switch {
		case msg.Type == reply.TypeText && msg.Text != nil:
			out = append(out, messaging_api.TextMessage{Text: msg.Text.Body})
		case msg.Type == reply.TypeSticker && msg.Sticker != nil:
			out = append(out, messaging_api.StickerMessage{
				PackageId: msg.Sticker.PackageID,
				StickerId: msg.Sticker.StickerID,
			})
		case msg.Type == reply.TypeImage && msg.Image != nil:
			out = append(out, messaging_api.ImageMessage{
				OriginalContentUrl: msg.Image.ContentURL,
				PreviewImageUrl:    msg.Image.PreviewURL,
			})
		case msg.Type == reply.TypeVideo && msg.Video != nil:
			out = append(out, messaging_api.VideoMessage{
				OriginalContentUrl: msg.Video.ContentURL,
				PreviewImageUrl:    msg.Video.PreviewURL,
			})
		case msg.Type == reply.TypeLocation && msg.Location != nil:
			out = append(out, messaging_api.LocationMessage{
				Title:     msg.Location.Title,
				Address:   msg.Location.Address,
				Latitude:  msg.Location.Latitude,
				Longitude: msg.Location.Longitude,
			})
		default:
			log.Printf("[line] skipping malformed %s message", msg.Type)
		}
	}
	return out
}
