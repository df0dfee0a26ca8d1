package solr

import (
	b64 "encoding/base64"
	"fmt"
	"net/http"
)

// BasicAuth sends credentials using the basic scheme. Password may be empty.
type BasicAuth struct {
	Username string
	Password string
}

func NewBasicAuth(username string, password string) *BasicAuth {
	return &BasicAuth{Username: username, Password: password}
}

func (a *BasicAuth) AuthorizeRequest(req *http.Request) {
	basicCred := a.basicCredential()
	if basicCred != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Basic %s", basicCred))
	}
}

func (a *BasicAuth) basicCredential() string {
	if a.Username != "" {
		userPass := fmt.Sprintf("%s:%s", a.Username, a.Password)
		return b64.StdEncoding.EncodeToString([]byte(userPass))
	}
	return ""
}
