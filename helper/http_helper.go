package helper

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"gopkg.in/go-playground/validator.v9"
	entrans "gopkg.in/go-playground/validator.v9/translations/en"
)

const (
	textError             = `error`
	textOk                = `ok`
	codeSuccess           = 200
	codeBadRequestError   = 400
	codeUnauthorizedError = 401
	codeValidationError   = 403
	codeNotFound          = 404
)

// ResponseHelper ...
type ResponseHelper struct {
	C        *gin.Context
	Status   string
	Message  string
	Data     interface{}
	Code     int // not the http code
	CodeType string
}

// HTTPHelper bundles the response envelope with request validation.
type HTTPHelper struct {
	Validate   *validator.Validate
	Translator ut.Translator
}

// NewHTTPHelper wires the validator with english translations.
func NewHTTPHelper() *HTTPHelper {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")

	validate := validator.New()
	_ = entrans.RegisterDefaultTranslations(validate, trans)

	return &HTTPHelper{Validate: validate, Translator: trans}
}

// SetResponse ...
// Set response data.
func (u *HTTPHelper) SetResponse(c *gin.Context, status string, message string, data interface{}, code int, codeType string) ResponseHelper {
	return ResponseHelper{c, status, message, data, code, codeType}
}

// SendError ...
// Send error response to consumers.
func (u *HTTPHelper) SendError(c *gin.Context, message string, data interface{}, code int, codeType string) error {
	res := u.SetResponse(c, textError, message, data, code, codeType)

	return u.SendResponse(res)
}

// SendBadRequest ...
// Send bad request response to consumers.
func (u *HTTPHelper) SendBadRequest(c *gin.Context, message string, data interface{}) error {
	res := u.SetResponse(c, textError, message, data, codeBadRequestError, `badRequest`)

	return u.SendResponse(res)
}

// SendValidationError ...
// Send validation error response to consumers.
func (u *HTTPHelper) SendValidationError(c *gin.Context, validationErrors validator.ValidationErrors) error {
	errorResponse := map[string][]string{}
	errorTranslation := validationErrors.Translate(u.Translator)
	for _, err := range validationErrors {
		errKey := Underscore(err.StructField())
		errorResponse[errKey] = append(errorResponse[errKey], errorTranslation[err.Namespace()])
	}

	c.JSON(http.StatusBadRequest, map[string]interface{}{
		"code":         codeValidationError,
		"code_type":    "validationError",
		"code_message": errorResponse,
		"data":         u.EmptyJsonMap(),
	})
	return nil
}

// SendUnauthorizedError ...
// Send unauthorized response to consumers.
func (u *HTTPHelper) SendUnauthorizedError(c *gin.Context, message string, data interface{}) error {
	return u.SendError(c, message, data, codeUnauthorizedError, `unAuthorized`)
}

// SendNotFoundError ...
// Send not found response to consumers.
func (u *HTTPHelper) SendNotFoundError(c *gin.Context, message string, data interface{}) error {
	return u.SendError(c, message, data, codeNotFound, `notFound`)
}

// SendSuccess ...
// Send success response to consumers.
func (u *HTTPHelper) SendSuccess(c *gin.Context, message string, data interface{}) error {
	res := u.SetResponse(c, textOk, message, data, codeSuccess, `success`)

	return u.SendResponse(res)
}

// SendResponse ...
// Send response
func (u *HTTPHelper) SendResponse(res ResponseHelper) error {
	if len(res.Message) == 0 {
		res.Message = `success`
	}

	var resCode int
	switch res.Code {
	case codeSuccess:
		resCode = http.StatusOK
	case codeNotFound:
		resCode = http.StatusNotFound
	case codeUnauthorizedError:
		resCode = http.StatusUnauthorized
	default:
		resCode = http.StatusBadRequest
	}

	res.C.JSON(resCode, map[string]interface{}{
		"code":         res.Code,
		"code_type":    res.CodeType,
		"code_message": res.Message,
		"data":         res.Data,
	})
	return nil
}

func (u *HTTPHelper) EmptyJsonMap() map[string]interface{} {
	return make(map[string]interface{})
}

// Underscore converts a StructField name to its snake_case json key.
func Underscore(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// get pagination URL
func (u *HTTPHelper) GetPagingUrl(c *gin.Context, page, limit int) string {
	r := c.Request
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	currentURL := scheme + "://" + r.Host + r.URL.Path + "?page=" + strconv.Itoa(page) + "&limit=" + strconv.Itoa(limit)
	return currentURL
}

// Set paginantion response
func (u *HTTPHelper) GeneratePaging(c *gin.Context, limit, page int, totalRecord int64) map[string]interface{} {
	prevURL, nextURL := "", ""

	totalPages := int(math.Ceil(float64(totalRecord) / float64(limit)))

	if page > 1 {
		prevURL = u.GetPagingUrl(c, page-1, limit)
	}
	if totalPages > page {
		nextURL = u.GetPagingUrl(c, page+1, limit)
	}

	return map[string]interface{}{
		"total_records": totalRecord,
		"per_page":      limit,
		"current_page":  page,
		"total_pages":   totalPages,
		"links": map[string]interface{}{
			"previous": prevURL,
			"next":     nextURL,
		},
	}
}
