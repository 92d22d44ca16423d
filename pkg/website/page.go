package website

// invitationPage is the static invitation served at the site root. The
// attendance counter is filled in by the /live websocket.
const invitationPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>You Are Invited</title>
<style>
  body { font-family: Georgia, serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
  h1 { color: #5e9ca0; text-align: center; }
  p { text-align: center; }
  img { display: block; margin: 1rem auto; max-width: 100%; }
  #attendance { text-align: center; font-style: italic; }
  form { text-align: center; margin: 2rem 0; }
  input { margin: 0.25rem; }
</style>
</head>
<body>
<h1>Welcome, to the First Day on the Water</h1>
<p>You are hereby invited to come kayaking on the oxbow bend of the river,
far to the north and beyond city limits. In a valley rimmed with vibrant
treetops, exotic birds fly to and fro while fish dance in the water.</p>
<p>Yet there can be no serenity without danger, for the current is swift
and merciless. From the depths swell monstrous rocks and boulders, a
continuous challenge of navigation for the few voyagers who chance this
way. Those fortunate enough to survive tell tall tales of adventure.</p>
<ul>
<li><strong>Date:</strong> 3 September</li>
<li><strong>Time and Place:</strong> meet at 12:15 PM, <em><strong>sharp</strong></em>, at the old cathedral intersection</li>
<li><strong>Cost:</strong> $40, cash only</li>
</ul>
<img src="./river-background.png" alt="the river" width="1200">
<p id="attendance">&nbsp;</p>
<form id="rsvp-form">
  <input type="text" id="first-name" placeholder="First name" required>
  <input type="tel" id="phone" placeholder="Phone (optional)">
  <input type="email" id="email" placeholder="Email (optional)">
  <button type="submit">RSVP</button>
  <p id="rsvp-result"></p>
</form>
<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var sock = new WebSocket(proto + location.host + "/live");
  sock.onmessage = function (ev) {
    var update = JSON.parse(ev.data);
    document.getElementById("attendance").textContent =
      update.attending + " guest(s) attending so far";
  };

  document.getElementById("rsvp-form").addEventListener("submit", function (ev) {
    ev.preventDefault();
    var phone = document.getElementById("phone").value;
    var email = document.getElementById("email").value;
    fetch("/enter-rsvp", {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: JSON.stringify({
        first_name: document.getElementById("first-name").value,
        details: {
          phone_number: phone ? Number(phone.replace(/\D/g, "")) : null,
          email_address: email || null
        }
      })
    }).then(function (resp) { return resp.json(); }).then(function (answer) {
      var result = document.getElementById("rsvp-result");
      if (answer.status === "success") {
        result.textContent = "See you on the water!";
      } else if (answer.status === "already_rsvped") {
        result.textContent = "You already replied on " +
          new Date(answer.rsvped_at * 1000).toLocaleDateString();
      } else {
        result.textContent = "You are not on the guest list. Ask the coordinator.";
      }
    });
  });
})();
</script>
<p style="text-align: right;">Source code available upon written request.</p>
</body>
</html>
`
