package relay

import (
	"fmt"

	"github.com/zhouzirui/linebot-relay/internal/model/event"
	"github.com/zhouzirui/linebot-relay/internal/model/reply"
)

const (
	promptSticker  = "使用者想收到貼圖，請給他一句可愛或幽默的回應。"
	promptImage    = "使用者請求一張圖片，請用溫暖或有趣的語氣回覆。"
	promptVideo    = "使用者請求觀看影片，請用輕鬆語氣回覆。"
	promptLocation = "傳送位置資訊給使用者，請自然回覆。"
)

const pikachuImageURL = "https://en.meming.world/images/en/6/6e/Surprised_Pikachu.jpg"

var (
	cannedSticker = reply.Sticker{PackageID: "11537", StickerID: "52002740"}
	cannedImage   = reply.Media{ContentURL: pikachuImageURL, PreviewURL: pikachuImageURL}
	cannedVideo   = reply.Media{
		ContentURL: "https://ckexun.github.io/MemeBot/material/videoplayback.mp4",
		PreviewURL: pikachuImageURL,
	}
	cannedLocation = reply.Location{
		Title:     "台北 101",
		Address:   "信義路五段7號",
		Latitude:  25.033964,
		Longitude: 121.564468,
	}
)

func freeformPrompt(text string) string {
	return fmt.Sprintf("使用者說：「%s」，請自然回覆。", text)
}

func mediaEchoPrompt(kind event.Kind) string {
	switch kind {
	case event.KindImage:
		return "使用者傳了一張圖片，請用有趣的方式回覆。"
	case event.KindVideo:
		return "使用者傳了一段影片，請給予自然的回應。"
	case event.KindSticker:
		return "使用者傳來貼圖，請可愛回應。"
	default:
		return "使用者傳來媒體訊息，請自然回應。"
	}
}
