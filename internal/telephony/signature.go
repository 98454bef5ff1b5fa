package telephony

import (
	"net/http"

	"dentalvoice/pkg/logger"

	"github.com/gin-gonic/gin"
	twilioclient "github.com/twilio/twilio-go/client"
)

// RequireTwilioSignature validates the X-Twilio-Signature header against
// the request URL and form params. With an empty auth token the check is
// skipped, which is only acceptable outside production.
func RequireTwilioSignature(authToken, publicBaseURL string) gin.HandlerFunc {
	validator := twilioclient.NewRequestValidator(authToken)
	return func(c *gin.Context) {
		if authToken == "" {
			c.Next()
			return
		}
		log := logger.FromGin(c)

		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
			return
		}
		params := make(map[string]string, len(c.Request.PostForm))
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}

		// The signature covers the public URL the carrier called, not
		// whatever host header a proxy rewrote.
		url := publicBaseURL + c.Request.URL.RequestURI()
		sig := c.GetHeader("X-Twilio-Signature")
		if !validator.Validate(url, params, sig) {
			log.Warn("carrier signature rejected", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}
