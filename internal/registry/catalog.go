package registry

import "github.com/conneroisu/virsqr/internal/validation"

// TemplateCount is the number of templates in the built-in catalog.
const TemplateCount = 50

// Template categories.
const (
	CategoryText           = "text"
	CategoryWeb            = "web"
	CategoryContact        = "contact"
	CategoryMessaging      = "messaging"
	CategoryLocation       = "location"
	CategoryNetwork        = "network"
	CategoryCalendar       = "calendar"
	CategoryCommerce       = "commerce"
	CategorySocial         = "social"
	CategoryMedia          = "media"
	CategoryAuthentication = "authentication"
	CategoryData           = "data"
	CategorySecurity       = "security"
	CategoryUtility        = "utility"
)

func req(names ...string) []string { return names }

func opt(names ...string) []Param {
	out := make([]Param, len(names))
	for i, n := range names {
		out[i] = Param{Name: n}
	}
	return out
}

func wifi(name, auth, description string) *Template {
	t := &Template{
		Name:        name,
		Description: description,
		Category:    CategoryNetwork,
		Required:    req("ssid", "password"),
		Optional:    []Param{{Name: "hidden", Default: "false"}},
		Escape:      "wifi",
		Pattern:     "WIFI:T:" + auth + ";S:{ssid};P:{password};[H:{hidden|flag};];",
	}
	if auth == "nopass" {
		t.Required = req("ssid")
		t.Pattern = "WIFI:T:nopass;S:{ssid};[H:{hidden|flag};];"
	}
	return t
}

func cryptoURI(name, scheme, description string) *Template {
	return &Template{
		Name:        name,
		Description: description,
		Category:    CategoryCommerce,
		Pattern:     scheme + ":{address}{?amount,label,message}",
		Required:    req("address"),
		Optional:    opt("amount", "label", "message"),
		Escape:      "path",
	}
}

func profile(name, base, description string) *Template {
	return &Template{
		Name:        name,
		Description: description,
		Category:    CategorySocial,
		Pattern:     base + "{handle|trimat|path}",
		Required:    req("handle"),
	}
}

// catalog returns fresh copies of the built-in templates.
func catalog() []*Template {
	return []*Template{
		// text
		{Name: "text", Description: "Plain text", Category: CategoryText,
			Pattern: "{text}", Required: req("text")},
		{Name: "text-uppercase", Description: "Plain text uppercased", Category: CategoryText,
			Pattern: "{text|upper}", Required: req("text")},
		{Name: "text-lowercase", Description: "Plain text lowercased", Category: CategoryText,
			Pattern: "{text|lower}", Required: req("text")},

		// web
		{Name: "url", Description: "URL (as provided)", Category: CategoryWeb,
			Pattern: "{url}", Required: req("url")},
		{Name: "url-https", Description: "Force HTTPS scheme", Category: CategoryWeb,
			Pattern: "{url|https}", Required: req("url")},
		{Name: "url-http", Description: "Force HTTP scheme", Category: CategoryWeb,
			Pattern: "{url|http}", Required: req("url")},
		{Name: "url-utm", Description: "URL with UTM parameters", Category: CategoryWeb,
			Pattern:  "{base_url|https}{?utm_source,utm_medium,utm_campaign,utm_term,utm_content}",
			Required: req("base_url", "utm_source", "utm_medium"),
			Optional: opt("utm_campaign", "utm_term", "utm_content")},

		// contact
		{Name: "email-mailto", Description: "Email using mailto:", Category: CategoryContact,
			Pattern: "mailto:{to|mailto}{?subject,body}", Required: req("to"), Optional: opt("subject", "body"),
			Escape: "line"},
		{Name: "email-simple", Description: "Email using MATMSG format", Category: CategoryContact,
			Pattern: "MATMSG:TO:{to};SUB:{subject};BODY:{body};;", Required: req("to"),
			Optional: opt("subject", "body"), Escape: "mecard"},
		{Name: "phone", Description: "Telephone number (tel:)", Category: CategoryContact,
			Pattern: "tel:{number|tel}", Required: req("number"), Escape: "line"},
		{Name: "vcard", Description: "vCard (VCF) contact", Category: CategoryContact,
			Pattern: "BEGIN:VCARD\nVERSION:3.0\nFN:{name}\n" +
				"[TEL;TYPE=CELL:{phone}\n][EMAIL:{email}\n][ORG:{org}\n][TITLE:{title}\n]" +
				"[URL:{url}\n][ADR:;;{address};;;;\n][NOTE:{note}\n]END:VCARD",
			Required: req("name"),
			Optional: opt("phone", "email", "org", "title", "url", "address", "note"),
			Escape:   "vcard"},
		{Name: "mecard", Description: "MeCard contact", Category: CategoryContact,
			Pattern:  "MECARD:N:{name};[TEL:{phone};][EMAIL:{email};][URL:{url};];",
			Required: req("name"), Optional: opt("phone", "email", "url"), Escape: "mecard"},

		// messaging
		{Name: "sms", Description: "SMS (SMSTO)", Category: CategoryMessaging,
			Pattern: "SMSTO:{number|tel}:{message}", Required: req("number"), Optional: opt("message"),
			Escape: "line"},
		{Name: "whatsapp", Description: "WhatsApp wa.me link", Category: CategoryMessaging,
			Pattern: "https://wa.me/{phone|trimplus|path}{?text}", Required: req("phone"),
			Optional: opt("text")},
		{Name: "telegram", Description: "Telegram username link", Category: CategoryMessaging,
			Pattern: "https://t.me/{username|trimat|path}", Required: req("username")},
		{Name: "discord", Description: "Discord invite", Category: CategoryMessaging,
			Pattern: "https://discord.gg/{invite}", Required: req("invite"), Escape: "path"},
		{Name: "slack", Description: "Slack channel redirect", Category: CategoryMessaging,
			Pattern: "https://slack.com/app_redirect{?channel,team}", Required: req("channel"),
			Optional: opt("team")},

		// location
		{Name: "geo", Description: "Geo coordinates (geo: URI)", Category: CategoryLocation,
			Pattern: "geo:{lat},{lon}[?q={query}]", Required: req("lat", "lon"), Optional: opt("query"),
			Escape: "path"},
		{Name: "google-maps", Description: "Google Maps query link", Category: CategoryLocation,
			Pattern: "https://www.google.com/maps?q={lat},{lon}", Required: req("lat", "lon"),
			Escape: "path"},

		// network
		wifi("wifi-wpa", "WPA", "WiFi config (WPA)"),
		wifi("wifi-wpa2", "WPA2", "WiFi config (WPA2)"),
		wifi("wifi-wep", "WEP", "WiFi config (WEP)"),
		wifi("wifi-nopass", "nopass", "WiFi config (open network)"),

		// calendar
		{Name: "event-ics", Description: "iCalendar VEVENT", Category: CategoryCalendar,
			Pattern: "BEGIN:VCALENDAR\nVERSION:2.0\nBEGIN:VEVENT\nSUMMARY:{summary}\nDTSTART:{dtstart}\n" +
				"[DTEND:{dtend}\n][LOCATION:{location}\n][DESCRIPTION:{description}\n]END:VEVENT\nEND:VCALENDAR",
			Required: req("summary", "dtstart"), Optional: opt("dtend", "location", "description"),
			Escape: "ical"},
		{Name: "event-google-calendar", Description: "Google Calendar template link", Category: CategoryCalendar,
			Pattern: "https://calendar.google.com/calendar/render?action=TEMPLATE" +
				"&text={text}&dates={start}%2F{end}{&details,location}",
			Required: req("text", "start", "end"), Optional: opt("details", "location"),
			Escape: "query"},

		// commerce
		cryptoURI("bitcoin", "bitcoin", "Bitcoin URI"),
		cryptoURI("ethereum", "ethereum", "Ethereum URI"),
		cryptoURI("litecoin", "litecoin", "Litecoin URI"),
		{Name: "paypal-me", Description: "PayPal.me link", Category: CategoryCommerce,
			Pattern: "https://paypal.me/{username}[/{amount}]", Required: req("username"),
			Optional: opt("amount"), Escape: "path"},
		{Name: "upi", Description: "UPI payment URI", Category: CategoryCommerce,
			Pattern: "upi://pay?pa={pa}&pn={pn}&cu={cu}{&am,tn}", Required: req("pa", "pn"),
			Optional: []Param{{Name: "am"}, {Name: "tn"}, {Name: "cu", Default: "INR"}},
			Escape:   "query"},
		{Name: "sepa-credit-transfer", Description: "EPC SEPA Credit Transfer payload", Category: CategoryCommerce,
			Pattern: "BCD\n001\n1\nSCT\n{bic}\n{name}\n{iban}\nEUR{amount}\n" +
				"{purpose}\n{remittance}\n{information}",
			Required: req("name", "iban", "bic", "amount"),
			Optional: opt("purpose", "remittance", "information"),
			Escape:   "line"},

		// social
		profile("linkedin", "https://www.linkedin.com/in/", "LinkedIn profile"),
		profile("github", "https://github.com/", "GitHub profile"),
		profile("twitter", "https://twitter.com/", "X/Twitter profile"),
		profile("facebook", "https://facebook.com/", "Facebook profile"),
		profile("instagram", "https://instagram.com/", "Instagram profile"),
		profile("youtube", "https://youtube.com/@", "YouTube handle"),

		// media
		{Name: "zoom-meeting", Description: "Zoom meeting link", Category: CategoryMedia,
			Pattern: "https://zoom.us/j/{meeting_id}[?pwd={pwd}]", Required: req("meeting_id"),
			Optional: opt("pwd"), Escape: "path"},
		{Name: "spotify-track", Description: "Spotify track link", Category: CategoryMedia,
			Pattern: "https://open.spotify.com/track/{track_id}", Required: req("track_id"), Escape: "path"},
		{Name: "appstore", Description: "Apple App Store link", Category: CategoryMedia,
			Pattern: "https://apps.apple.com/app/id{app_id|appid}", Required: req("app_id"), Escape: "path"},
		{Name: "googleplay", Description: "Google Play Store link", Category: CategoryMedia,
			Pattern: "https://play.google.com/store/apps/details?id={package}", Required: req("package"),
			Escape: "path"},

		// utility
		{Name: "app-deeplink", Description: "Custom app deep link", Category: CategoryUtility,
			Pattern: "{scheme}://{path|trimslash}[?{query|trimquery}]", Required: req("scheme", "path"),
			Optional: opt("query")},
		{Name: "custom-prefix", Description: "Prefix + value", Category: CategoryUtility,
			Pattern: "{prefix}{value}", Required: req("prefix", "value")},

		// data
		{Name: "json", Description: "Minified JSON (validated)", Category: CategoryData,
			Pattern: "{json|json}", Required: req("json")},
		{Name: "csv-row", Description: "CSV row as provided", Category: CategoryData,
			Pattern: "{values}", Required: req("values")},
		{Name: "markdown-link", Description: "Markdown link", Category: CategoryData,
			Pattern: `\[{text|md}\]({url|mdurl})`, Required: req("text", "url")},

		// authentication
		{Name: "otp-totp", Description: "TOTP otpauth:// URI", Category: CategoryAuthentication,
			Pattern: "otpauth://totp/{label|path}?secret={secret}&digits={digits}&period={period}{&issuer}",
			Required: req("label", "secret"),
			Optional: []Param{{Name: "issuer"}, {Name: "digits", Default: "6"}, {Name: "period", Default: "30"}},
			Escape:   "query"},
		{Name: "otp-hotp", Description: "HOTP otpauth:// URI", Category: CategoryAuthentication,
			Pattern:  "otpauth://hotp/{label|path}?secret={secret}&counter={counter}&digits={digits}{&issuer}",
			Required: req("label", "secret", "counter"),
			Optional: []Param{{Name: "issuer"}, {Name: "digits", Default: "6"}},
			Escape:   "query"},

		// security
		{Name: "eicar-test", Description: "EICAR standard test string (safe antivirus demo)",
			Category: CategorySecurity, Pattern: escapeLiteral(validation.EICAR)},
		{Name: "safe-demo-sentry", Description: "Safe demo URL (sentry.io)", Category: CategorySecurity,
			Pattern: "https://sentry.io"},
	}
}
