package main

import "github.com/Zachkp/portfolio/internal/site"

var siteCopy = site.Copy{
	ContactSuccess: "Thank you for your message! I'll get back to you soon.",
	ContactFailure: "Sorry, there was an error sending your message. Please try again later.",
	Privacy:        PrivacyNotice,
}

var PrivacyNotice = `This site counts page views to see which pages are read.
	Your IP address is never stored: it is combined with a secret salt and hashed, and only
	the first 16 characters of that hash are kept, together with your browser's user agent,
	the page path and the time of the visit.
	Requests sent with "Do Not Track" enabled are not recorded at all.
	Visit records are deleted automatically after 12 months.`
