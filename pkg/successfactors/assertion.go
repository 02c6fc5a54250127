package successfactors

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

const (
	samlAssertionNS = "urn:oasis:names:tc:SAML:2.0:assertion"
	dsigNS          = "http://www.w3.org/2000/09/xmldsig#"

	nameIDFormatUnspecified  = "urn:oasis:names:tc:SAML:1.1:nameid-format:unspecified"
	confirmationMethodBearer = "urn:oasis:names:tc:SAML:2.0:cm:bearer"
	authnContextPassword     = "urn:oasis:names:tc:SAML:2.0:ac:classes:PasswordProtectedTransport"

	algExcC14N            = "http://www.w3.org/2001/10/xml-exc-c14n#"
	algRSASHA256          = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	algEnvelopedSignature = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
	algSHA256             = "http://www.w3.org/2001/04/xmlenc#sha256"

	// Assertion validity straddles issuance so moderate clock skew between
	// us and the SAP token endpoint does not invalidate a fresh assertion.
	assertionValidityWindow = 10 * time.Minute

	samlInstantLayout = "2006-01-02T15:04:05Z"
)

// Assertion is one signed, base64-encoded SAML bearer assertion plus the
// attributes a caller might want to log or assert on. Encoded is what goes
// into the token exchange form; the raw XML is deliberately not retained.
type Assertion struct {
	ID           string
	IssuedAt     time.Time
	NotBefore    time.Time
	NotOnOrAfter time.Time
	Encoded      string
}

// Signer builds and signs SAML assertions for the SAML 2.0 bearer grant.
// The zero value is not usable; construct via newSigner.
type Signer struct {
	key      *rsa.PrivateKey
	clientID string
	userID   string
	tokenURL string
	audience string

	now   func() time.Time
	newID func() string
}

func newSigner(key *rsa.PrivateKey, clientID, userID, tokenURL, audience string, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{
		key:      key,
		clientID: clientID,
		userID:   userID,
		tokenURL: tokenURL,
		audience: audience,
		now:      now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Sign produces a fresh assertion. Each call mints a new ID and timestamps,
// so two calls never yield the same bytes.
func (s *Signer) Sign() (*Assertion, error) {
	id := s.newID()
	issuedAt := s.now().UTC().Truncate(time.Second)

	doc, assertion := s.buildUnsigned(id, issuedAt)

	unsigned, err := serialize(doc)
	if err != nil {
		return nil, &SigningError{Err: err}
	}

	digest := sha256.Sum256(unsigned)
	signedInfo := buildSignedInfo(id, base64.StdEncoding.EncodeToString(digest[:]))

	signedInfoBytes, err := serializeElement(signedInfo)
	if err != nil {
		return nil, &SigningError{Err: err}
	}

	hashed := sha256.Sum256(signedInfoBytes)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, hashed[:])
	if err != nil {
		return nil, &SigningError{Err: err}
	}

	signature := etree.NewElement("ds:Signature")
	signature.CreateAttr("xmlns:ds", dsigNS)
	signature.AddChild(signedInfo)
	signature.CreateElement("ds:SignatureValue").SetText(base64.StdEncoding.EncodeToString(sig))

	// The signature sits immediately after Issuer, per the SAML schema
	// element order SAP enforces.
	assertion.InsertChildAt(1, signature)

	signed, err := serialize(doc)
	if err != nil {
		return nil, &SigningError{Err: err}
	}

	return &Assertion{
		ID:           id,
		IssuedAt:     issuedAt,
		NotBefore:    issuedAt.Add(-assertionValidityWindow),
		NotOnOrAfter: issuedAt.Add(assertionValidityWindow),
		Encoded:      base64.StdEncoding.EncodeToString(signed),
	}, nil
}

// buildUnsigned assembles the assertion without its Signature element. Kept
// separate from Sign so tests can pin the exact pre-digest bytes for a fixed
// id and clock.
func (s *Signer) buildUnsigned(id string, issuedAt time.Time) (*etree.Document, *etree.Element) {
	notBefore := issuedAt.Add(-assertionValidityWindow).Format(samlInstantLayout)
	notOnOrAfter := issuedAt.Add(assertionValidityWindow).Format(samlInstantLayout)
	instant := issuedAt.Format(samlInstantLayout)

	doc := newCompactDocument()

	assertion := doc.CreateElement("saml2:Assertion")
	assertion.CreateAttr("xmlns:saml2", samlAssertionNS)
	assertion.CreateAttr("ID", id)
	assertion.CreateAttr("IssueInstant", instant)
	assertion.CreateAttr("Version", "2.0")

	assertion.CreateElement("saml2:Issuer").SetText(s.clientID)

	subject := assertion.CreateElement("saml2:Subject")
	nameID := subject.CreateElement("saml2:NameID")
	nameID.CreateAttr("Format", nameIDFormatUnspecified)
	nameID.SetText(s.userID)

	confirmation := subject.CreateElement("saml2:SubjectConfirmation")
	confirmation.CreateAttr("Method", confirmationMethodBearer)
	confirmationData := confirmation.CreateElement("saml2:SubjectConfirmationData")
	confirmationData.CreateAttr("NotOnOrAfter", notOnOrAfter)
	confirmationData.CreateAttr("Recipient", s.tokenURL)

	conditions := assertion.CreateElement("saml2:Conditions")
	conditions.CreateAttr("NotBefore", notBefore)
	conditions.CreateAttr("NotOnOrAfter", notOnOrAfter)
	conditions.CreateElement("saml2:AudienceRestriction").
		CreateElement("saml2:Audience").SetText(s.audience)

	authn := assertion.CreateElement("saml2:AuthnStatement")
	authn.CreateAttr("AuthnInstant", instant)
	authn.CreateAttr("SessionIndex", id)
	authn.CreateElement("saml2:AuthnContext").
		CreateElement("saml2:AuthnContextClassRef").SetText(authnContextPassword)

	return doc, assertion
}

// buildSignedInfo carries its own xmlns:ds declaration so its standalone
// serialization (the bytes that get signed) matches its serialization inside
// the Signature element byte for byte.
func buildSignedInfo(id, digestValue string) *etree.Element {
	signedInfo := etree.NewElement("ds:SignedInfo")
	signedInfo.CreateAttr("xmlns:ds", dsigNS)

	signedInfo.CreateElement("ds:CanonicalizationMethod").CreateAttr("Algorithm", algExcC14N)
	signedInfo.CreateElement("ds:SignatureMethod").CreateAttr("Algorithm", algRSASHA256)

	reference := signedInfo.CreateElement("ds:Reference")
	reference.CreateAttr("URI", "#"+id)

	transforms := reference.CreateElement("ds:Transforms")
	transforms.CreateElement("ds:Transform").CreateAttr("Algorithm", algEnvelopedSignature)
	transforms.CreateElement("ds:Transform").CreateAttr("Algorithm", algExcC14N)

	reference.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", algSHA256)
	reference.CreateElement("ds:DigestValue").SetText(digestValue)

	return signedInfo
}

// newCompactDocument yields a document that serializes on one line with no
// inter-tag whitespace. The token endpoint digests the assertion as sent, so
// pretty-printing would break signature verification.
func newCompactDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	return doc
}

func serialize(doc *etree.Document) ([]byte, error) {
	doc.Indent(etree.NoIndent)
	return doc.WriteToBytes()
}

func serializeElement(el *etree.Element) ([]byte, error) {
	doc := newCompactDocument()
	doc.AddChild(el.Copy())
	return serialize(doc)
}
