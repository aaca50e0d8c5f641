// Constantes de assinatura XML-DSig do layout NF-e 4.00.

package signer

// Namespaces e algoritmos exigidos pelo schema de assinatura da SEFAZ.
// O layout 4.00 ainda usa RSA-SHA1/SHA-1; não trocar por SHA-256 sem mudança
// oficial do manual de orientação.
const (
	NamespaceDS = "http://www.w3.org/2000/09/xmldsig#"

	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA1         = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	AlgSHA1            = "http://www.w3.org/2000/09/xmldsig#sha1"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)
