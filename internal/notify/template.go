package notify

import "fmt"

// OTPMailSubject is the subject line for verification code emails.
const OTPMailSubject = "Your Verification Code"

const otpMailTemplate = `<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0; padding: 0; }
    .container { max-width: 600px; margin: 40px auto; background: white; padding: 30px; border-radius: 10px; }
    .otp-box { background: #f8f9fa; border: 2px dashed #007bff; border-radius: 8px; padding: 20px; text-align: center; margin: 20px 0; }
    .otp-code { font-size: 32px; font-weight: bold; color: #007bff; letter-spacing: 5px; }
    .message { color: #666; line-height: 1.6; margin: 20px 0; }
  </style>
</head>
<body>
  <div class="container">
    <div class="message">
      <p>Hello,</p>
      <p>Your verification code is:</p>
    </div>
    <div class="otp-box">
      <div class="otp-code">%s</div>
    </div>
    <div class="message">
      <p><strong>This code will expire in 5 minutes.</strong></p>
      <p>If you didn't request this code, please ignore this email.</p>
    </div>
  </div>
</body>
</html>`

// OTPMailBody renders the HTML body for a verification code email.
// Codes are numeric, so no escaping is needed.
func OTPMailBody(code string) string {
	return fmt.Sprintf(otpMailTemplate, code)
}

// OTPSMSBody renders the text body for a verification code SMS.
func OTPSMSBody(code string) string {
	return fmt.Sprintf("Your verification code is %s", code)
}
