package flow

// Menu copy and informational replies, English and Telugu. The language
// preference is stored per phone and persists across flows.

const (
	historyImageEN  = "https://pub-d1d3a6c8900e4412aac6397524edd899.r2.dev/SPJRSD%20Temple%20History%20ENG%20(1).PNG"
	historyImageTEL = "https://pub-d1d3a6c8900e4412aac6397524edd899.r2.dev/SPJRSD%20Temple%20History%20TEL%20(1).PNG"
)

func mainMenu(to, lang string) Reply {
	if lang == "tel" {
		return List(to, "ప్రధాన మెను:", []Row{
			{ID: "register", Title: "📝 భక్తుడు నమోదు"},
			{ID: "seva_booking", Title: "🪔 సేవ బుకింగ్"},
			{ID: "room_booking", Title: "🏨 వసతి బుకింగ్"},
			{ID: "my_bookings", Title: "📒 నా బుకింగ్స్"},
			{ID: "next_tithi", Title: "🌕 తదుపరి తిథి"},
			{ID: "history", Title: "📜 స్థలపురాణం"},
			{ID: "timings", Title: "🕉 దర్శన వేళలు"},
			{ID: "location", Title: "📍 ఆలయ చిరునామా"},
			{ID: "change_lang", Title: "🌐 భాష మార్చండి"},
		})
	}
	return List(to, "Main Menu:", []Row{
		{ID: "register", Title: "📝 Register Devotee"},
		{ID: "seva_booking", Title: "🪔 Seva Booking"},
		{ID: "room_booking", Title: "🏨 Accommodation"},
		{ID: "my_bookings", Title: "📒 My Bookings"},
		{ID: "next_tithi", Title: "🌕 Know Next Tithi"},
		{ID: "history", Title: "📜 History"},
		{ID: "timings", Title: "🕉 Darshan Timings"},
		{ID: "location", Title: "📍 Temple Location"},
		{ID: "change_lang", Title: "🌐 Change Language"},
	})
}

func languageMenu(to string) Reply {
	return List(to, "Choose Language:", []Row{
		{ID: "lang_en", Title: "English 🇬🇧"},
		{ID: "lang_tel", Title: "తెలుగు 🇮🇳"},
	})
}

func historyReply(to, lang string) Reply {
	if lang == "tel" {
		return Image(to, historyImageTEL, "స్థలపురాణము")
	}
	return Image(to, historyImageEN, "Temple History")
}

const timingsTextEN = `🕉 Sri Parvathi Jadala Ramalingeshwara Swamy Devasthanam

Darshan Timings:
Mon & Fri: 5:00 AM – 1:00 PM, 3:00 PM – 7:30 PM
All other days: 5:00 AM – 12:30 PM, 3:00 PM – 7:00 PM`

const timingsTextTEL = `🕉 శ్రీ పార్వతీ జడల రామలింగేశ్వర స్వామి దేవస్థానం

దర్శన వేళలు:
సోమ & శుక్ర: ఉ 5:00 – మ 1:00, సా 3:00 – రా 7:30
మిగిలిన రోజులు: ఉ 5:00 – మ 12:30, సా 3:00 – రా 7:00`

func timingsReply(to, lang string) Reply {
	if lang == "tel" {
		return Text(to, timingsTextTEL)
	}
	return Text(to, timingsTextEN)
}

const locationTextEN = `📍 Sri Parvathi Jadala Ramalingeshwara Swamy Devasthanam
Cheruvugattu, Narketpally Mandal,
Nalgonda District, Telangana, India
https://maps.google.com/?q=Cheruvugattu+Temple`

const locationTextTEL = `📍 శ్రీ పార్వతీ జడల రామలింగేశ్వర స్వామి దేవస్థానం
చెరువుగట్టు, నార్కెట్‌పల్లి మండలం,
నల్గొండ జిల్లా, తెలంగాణ
https://maps.google.com/?q=Cheruvugattu+Temple`

func locationReply(to, lang string) Reply {
	if lang == "tel" {
		return Text(to, locationTextTEL)
	}
	return Text(to, locationTextEN)
}

const darshanTextEN = "🙏 Darshan is open to all devotees. Special darshan queues are available on Mondays, Kartika Masam and festival days. Please carry an ID for special darshan tickets."

const darshanTextTEL = "🙏 దర్శనం అందరు భక్తులకు అందుబాటులో ఉంది. సోమవారాలు, కార్తీక మాసం మరియు పర్వదినాలలో ప్రత్యేక దర్శన క్యూలు ఉంటాయి."

func darshanReply(to, lang string) Reply {
	if lang == "tel" {
		return Text(to, darshanTextTEL)
	}
	return Text(to, darshanTextEN)
}

func invalidOptionReply(to, lang string) Reply {
	if lang == "tel" {
		return Text(to, "తప్పు ఎంపిక. దయచేసి మెను నుండి ఎంచుకోండి.")
	}
	return Text(to, "Invalid option selected.")
}

// aiUnavailableText is the fixed fallback when the assistant cannot reply.
const aiUnavailableText = "క్షమించండి, ప్రస్తుతం సమాధానం ఇవ్వలేకపోతున్నాను. Please try again."
