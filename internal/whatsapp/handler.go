package whatsapp

import (
	"github.com/gofiber/fiber/v2"
)

var instructions = []string{
	"1. Create a Meta/Facebook Developer account at https://developers.facebook.com/",
	"2. Create a new app and add WhatsApp product",
	"3. Navigate to WhatsApp > Getting Started",
	"4. Get your Phone Number ID from the dashboard",
	"5. Navigate to WhatsApp > Configuration",
	"6. Generate a permanent access token",
	"7. Add credentials to config.json:",
	"   {",
	`     "whatsapp": {`,
	`       "phone_number_id": "YOUR_PHONE_NUMBER_ID",`,
	`       "access_token": "YOUR_PERMANENT_ACCESS_TOKEN"`,
	"     }",
	"   }",
	"8. Or set environment variables:",
	"   - WHATSAPP_BUSINESS_PHONE_NUMBER_ID",
	"   - WHATSAPP_BUSINESS_ACCESS_TOKEN",
	"9. Set MINIO_ENDPOINT so slips can be shared as public links",
}

func Instructions() []string {
	return instructions
}

// GET /api/whatsapp/config
func ConfigHandler(c *Client) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		resp := fiber.Map{
			"success":      true,
			"configured":   c.Configured(),
			"instructions": instructions,
		}
		if c.Configured() {
			id := c.phoneNumberID
			if len(id) > 8 {
				id = id[:8]
			}
			resp["current_config"] = fiber.Map{
				"phone_number_id": id + "...",
				"access_token":    "Set",
			}
		}
		return ctx.JSON(resp)
	}
}
