// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package mail

import "fmt"

// VerificationMessage builds the verification code email.
func VerificationMessage(to, name, code string) Message {
	text := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Your Farmdata verification code is: %s\n\n"+
			"The code expires in 10 minutes. If you did not request an\n"+
			"account, you can ignore this message.\n",
		name, code)

	html := fmt.Sprintf(
		`<p>Hello %s,</p>
<p>Your Farmdata verification code is:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px;">%s</p>
<p>The code expires in 10 minutes. If you did not request an account,
you can ignore this message.</p>`,
		name, code)

	return Message{
		To:       to,
		Subject:  "Your Farmdata verification code",
		TextBody: text,
		HTMLBody: html,
	}
}

// TestMessage builds the admin SMTP connectivity test email.
func TestMessage(to string) Message {
	return Message{
		To:       to,
		Subject:  "Farmdata SMTP test",
		TextBody: "This is a test message confirming the SMTP configuration works.\n",
	}
}
